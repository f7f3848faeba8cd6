package plan

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"wayfarer/internal/model"

	"github.com/google/uuid"
)

// Parse turns raw generated text into a validated plan. The model is asked
// for a JSON object but routinely wraps it in prose or markdown fences, so
// the text is sliced from the first '{' to the last '}' before decoding.
//
// Day entries without an integer "day" and a "locations" array are skipped,
// as are location entries missing name, description, latitude or longitude.
// Parse fails only when the slice is not JSON, when there is no "days"
// field, or when every entry was skipped.
func Parse(raw string) (*model.Plan, error) {
	var root map[string]any
	if err := json.Unmarshal([]byte(sliceObject(raw)), &root); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", model.ErrParse, err)
	}

	daysField, ok := root["days"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: response has no days field", model.ErrParse)
	}

	p := &model.Plan{}
	for _, entry := range daysField {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		dayNum, ok := asInt(obj["day"])
		if !ok {
			continue
		}
		locEntries, ok := obj["locations"].([]any)
		if !ok {
			continue
		}

		group := model.TripDay{ID: uuid.NewString(), Day: dayNum}
		for _, le := range locEntries {
			loc, ok := parseLocation(le, dayNum, len(group.Locations))
			if !ok {
				continue
			}
			group.Locations = append(group.Locations, loc)
		}
		p.Days = append(p.Days, group)
		p.Locations = append(p.Locations, group.Locations...)
	}

	if len(p.Locations) == 0 {
		return nil, fmt.Errorf("%w: response contained no usable locations", model.ErrParse)
	}
	return p, nil
}

func parseLocation(entry any, day, order int) (model.Location, bool) {
	obj, ok := entry.(map[string]any)
	if !ok {
		return model.Location{}, false
	}
	name, ok := obj["name"].(string)
	if !ok {
		return model.Location{}, false
	}
	description, ok := obj["description"].(string)
	if !ok {
		return model.Location{}, false
	}
	lat, ok := obj["latitude"].(float64)
	if !ok {
		return model.Location{}, false
	}
	lng, ok := obj["longitude"].(float64)
	if !ok {
		return model.Location{}, false
	}

	loc := model.Location{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Coordinate:  model.Coordinate{Latitude: lat, Longitude: lng},
		Day:         day,
		Order:       order,
	}
	if placeID, ok := obj["place_id"].(string); ok {
		loc.PlaceID = placeID
	}
	return loc, true
}

// sliceObject cuts raw down to the outermost {...} span, tolerating prose or
// markdown fences around the payload. If no pair is found the raw text is
// returned unchanged and left for the JSON decoder to reject.
func sliceObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
