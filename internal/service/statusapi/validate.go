package statusapi

import (
	"encoding/json"
	"math"

	"github.com/andres10976/homework-bot/internal/failure"
	"github.com/andres10976/homework-bot/internal/model"
)

// Validate checks the shape of a decoded status payload and extracts the
// cursor and the submission list. Individual submissions are only checked
// to be objects; their fields are validated when formatted.
func Validate(raw any) (*model.StatusResponse, error) {
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, failure.Newf(failure.KindMalformedResponse, "unexpected status response %T", raw)
	}

	currentDate, ok := toInt64(obj["current_date"])
	if !ok || currentDate <= 0 {
		return nil, failure.New(failure.KindMalformedResponse, "status response has no valid current_date")
	}

	list, ok := obj["homeworks"].([]any)
	if !ok {
		return nil, failure.New(failure.KindMalformedResponse, "status response homeworks is missing or not a list")
	}

	homeworks := make([]model.Homework, 0, len(list))
	for i, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, failure.Newf(failure.KindMalformedResponse, "homeworks[%d] is not an object", i)
		}
		name, _ := rec["homework_name"].(string)
		status, _ := rec["status"].(string)
		homeworks = append(homeworks, model.Homework{
			Name:   name,
			Status: model.ReviewStatus(status),
		})
	}

	return &model.StatusResponse{
		CurrentDate: currentDate,
		Homeworks:   homeworks,
	}, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
