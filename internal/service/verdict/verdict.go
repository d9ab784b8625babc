package verdict

import (
	"fmt"

	"github.com/andres10976/homework-bot/internal/failure"
	"github.com/andres10976/homework-bot/internal/model"
)

var verdicts = map[model.ReviewStatus]string{
	model.StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	model.StatusReviewing: "Работа взята на проверку ревьюером.",
	model.StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Lookup returns the display text for a review status.
func Lookup(status model.ReviewStatus) (string, bool) {
	v, ok := verdicts[status]
	return v, ok
}

// Format builds the chat message announcing a submission's new status.
func Format(hw model.Homework) (string, error) {
	if hw.Name == "" {
		return "", failure.New(failure.KindMissingField, "homework is missing homework_name")
	}
	if hw.Status == "" {
		return "", failure.Newf(failure.KindUnknownStatus, "homework %q is missing status", hw.Name)
	}
	v, ok := Lookup(hw.Status)
	if !ok {
		return "", failure.Newf(failure.KindUnknownStatus, "homework %q has unknown status %q", hw.Name, hw.Status)
	}
	return fmt.Sprintf("Changed review status for \"%s\". %s", hw.Name, v), nil
}
