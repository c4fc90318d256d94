// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import (
	"encoding/json"
	"time"

	"github.com/trailhead/trailhead/internal/identity"
)

// Payload field helpers. Create/update bodies arrive as generic maps (the
// chain's sanitizer and overrides operate on them before decoding); these
// helpers read typed values out, tolerating the numeric widening JSON
// decoding introduces.

func payloadInt64(body map[string]any, key string) (int64, bool, error) {
	v, ok := body[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int64:
		return n, true, nil
	case int:
		return int64(n), true, nil
	case float64:
		return int64(n), true, nil
	default:
		return 0, false, &ValidationError{Field: key, Message: "must be a number"}
	}
}

func payloadString(body map[string]any, key string) (string, bool, error) {
	v, ok := body[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, &ValidationError{Field: key, Message: "must be a string"}
	}
	return s, true, nil
}

func payloadBool(body map[string]any, key string) (bool, bool, error) {
	v, ok := body[key]
	if !ok || v == nil {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, false, &ValidationError{Field: key, Message: "must be a boolean"}
	}
	return b, true, nil
}

func payloadTime(body map[string]any, key string) (*time.Time, bool, error) {
	v, ok := body[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	switch tv := v.(type) {
	case time.Time:
		return &tv, true, nil
	case string:
		t, err := time.Parse(time.RFC3339, tv)
		if err != nil {
			return nil, false, &ValidationError{Field: key, Message: "must be an RFC 3339 timestamp"}
		}
		return &t, true, nil
	default:
		return nil, false, &ValidationError{Field: key, Message: "must be a timestamp"}
	}
}

// payloadPoint reads a coordinate encoded as a JSON string, e.g.
// {"lon":-0.127,"lat":51.507}. Clients send the point as a string so the
// nested-object sanitizer does not strip it.
func payloadPoint(body map[string]any, key string) (*GeoPoint, bool, error) {
	s, ok, err := payloadString(body, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	var p GeoPoint
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, false, &ValidationError{Field: key, Message: "must be a JSON point"}
	}
	return &p, true, nil
}

// applyQuestPayload writes body fields onto the quest. Absent fields leave
// the current value untouched, so the same decoder serves create (onto a
// zero value) and partial update (onto the loaded row).
func applyQuestPayload(q *Quest, body map[string]any) error {
	if name, ok, err := payloadString(body, "name"); err != nil {
		return err
	} else if ok {
		q.Name = name
	}
	if v, ok, err := payloadBool(body, "published"); err != nil {
		return err
	} else if ok {
		q.Published = v
	}
	if v, ok, err := payloadBool(body, "paused"); err != nil {
		return err
	} else if ok {
		q.Paused = v
	}
	if v, ok, err := payloadBool(body, "show_distance"); err != nil {
		return err
	} else if ok {
		q.ShowDistance = v
	}
	if t, ok, err := payloadTime(body, "start_time"); err != nil {
		return err
	} else if ok {
		q.StartTime = t
	}
	if t, ok, err := payloadTime(body, "end_time"); err != nil {
		return err
	} else if ok {
		q.EndTime = t
	}
	if n, ok, err := payloadInt64(body, "time_limit"); err != nil {
		return err
	} else if ok {
		q.TimeLimit = int(n)
	}
	if n, ok, err := payloadInt64(body, "unit_id"); err != nil {
		return err
	} else if ok {
		q.UnitID = n
	}
	return nil
}

func applyUnitPayload(u *Unit, body map[string]any) error {
	if name, ok, err := payloadString(body, "name"); err != nil {
		return err
	} else if ok {
		u.Name = name
	}
	return nil
}

func applyItemPayload(it *Item, body map[string]any) error {
	if name, ok, err := payloadString(body, "name"); err != nil {
		return err
	} else if ok {
		it.Name = name
	}
	if desc, ok, err := payloadString(body, "description"); err != nil {
		return err
	} else if ok {
		it.Description = desc
	}
	if t, ok, err := payloadString(body, "type"); err != nil {
		return err
	} else if ok {
		it.Type = ItemType(t)
	}
	return nil
}

func applyInstancePayload(inst *ItemInstance, body map[string]any) error {
	if name, ok, err := payloadString(body, "name"); err != nil {
		return err
	} else if ok {
		inst.Name = name
	}
	if desc, ok, err := payloadString(body, "description"); err != nil {
		return err
	} else if ok {
		inst.Description = desc
	}
	if n, ok, err := payloadInt64(body, "item_id"); err != nil {
		return err
	} else if ok {
		inst.ItemID = n
	}
	if n, ok, err := payloadInt64(body, "quest_id"); err != nil {
		return err
	} else if ok {
		inst.QuestID = n
	}
	if n, ok, err := payloadInt64(body, "unit_id"); err != nil {
		return err
	} else if ok {
		inst.UnitID = n
	}
	if p, ok, err := payloadPoint(body, "location"); err != nil {
		return err
	} else if ok {
		inst.Location = p
	}
	return nil
}

func applyUserPayload(u *User, body map[string]any) error {
	if name, ok, err := payloadString(body, "name"); err != nil {
		return err
	} else if ok {
		u.Name = name
	}
	if email, ok, err := payloadString(body, "email"); err != nil {
		return err
	} else if ok {
		u.Email = email
	}
	if role, ok, err := payloadString(body, "role"); err != nil {
		return err
	} else if ok {
		r, err := identity.ParseRole(role)
		if err != nil {
			return &ValidationError{Field: "role", Message: "must be scout, leader or admin"}
		}
		u.Role = r
	}
	if n, ok, err := payloadInt64(body, "unit_id"); err != nil {
		return err
	} else if ok {
		u.UnitID = &n
	}
	return nil
}

func applyRunPayload(run *QuestRun, body map[string]any) error {
	if n, ok, err := payloadInt64(body, "quest_id"); err != nil {
		return err
	} else if ok {
		run.QuestID = n
	}
	if n, ok, err := payloadInt64(body, "user_id"); err != nil {
		return err
	} else if ok {
		run.UserID = n
	}
	if t, ok, err := payloadTime(body, "start_time"); err != nil {
		return err
	} else if ok {
		run.StartTime = *t
	}
	if t, ok, err := payloadTime(body, "finish_time"); err != nil {
		return err
	} else if ok {
		run.FinishTime = t
	}
	if v, ok, err := payloadBool(body, "completed"); err != nil {
		return err
	} else if ok {
		run.Completed = v
	}
	return nil
}

func applyFoundPayload(f *FoundItem, body map[string]any) error {
	if n, ok, err := payloadInt64(body, "item_instance_id"); err != nil {
		return err
	} else if ok {
		f.ItemInstanceID = n
	}
	if n, ok, err := payloadInt64(body, "quest_id"); err != nil {
		return err
	} else if ok {
		f.QuestID = n
	}
	if n, ok, err := payloadInt64(body, "user_id"); err != nil {
		return err
	} else if ok {
		f.UserID = n
	}
	if t, ok, err := payloadTime(body, "time"); err != nil {
		return err
	} else if ok {
		f.Time = *t
	}
	return nil
}
