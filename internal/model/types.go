package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray is stored as a JSON array column.
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	return scanJSON(value, s)
}

type EmotionScore struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type EmotionList []EmotionScore

func (l EmotionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

func (l *EmotionList) Scan(value interface{}) error {
	if value == nil {
		*l = EmotionList{}
		return nil
	}
	return scanJSON(value, l)
}

type TopicScore struct {
	Label     string  `json:"label"`
	Relevance float64 `json:"relevance"`
}

type TopicList []TopicScore

func (l TopicList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

func (l *TopicList) Scan(value interface{}) error {
	if value == nil {
		*l = TopicList{}
		return nil
	}
	return scanJSON(value, l)
}

// AdapterOutcome records how one model adapter fared on a job.
type AdapterOutcome struct {
	Adapter   string `json:"adapter"`
	Kind      string `json:"kind"`
	OK        bool   `json:"ok"`
	Attempts  int    `json:"attempts"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type AdapterReport []AdapterOutcome

func (r AdapterReport) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	return json.Marshal(r)
}

func (r *AdapterReport) Scan(value interface{}) error {
	if value == nil {
		*r = AdapterReport{}
		return nil
	}
	return scanJSON(value, r)
}

// Failed returns the names of adapters that did not produce a result.
func (r AdapterReport) Failed() []string {
	var names []string
	for _, o := range r {
		if !o.OK {
			names = append(names, o.Adapter)
		}
	}
	return names
}

func scanJSON(value interface{}, dst interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}
