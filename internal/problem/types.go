package problem

import (
	"encoding/json"
	"fmt"
)

// Topic is the general subject area a problem belongs to.
type Topic string

const (
	TopicMath   Topic = "Math"
	TopicTrivia Topic = "Trivia"
	TopicLogic  Topic = "Logic"
)

// Topics lists every known topic in display order.
var Topics = []Topic{TopicMath, TopicTrivia, TopicLogic}

// Valid reports whether t is one of the known topics.
func (t Topic) Valid() bool {
	switch t {
	case TopicMath, TopicTrivia, TopicLogic:
		return true
	}
	return false
}

func (t *Topic) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("topic must be a string: %w", err)
	}
	if !Topic(s).Valid() {
		return fmt.Errorf("unknown topic %q", s)
	}
	*t = Topic(s)
	return nil
}

// Problem is a stored practice problem.
type Problem struct {
	ID              int64    `json:"id"`
	OwnerID         int64    `json:"owner_id"`
	Recommendations int      `json:"recommendations"`
	Topic           Topic    `json:"topic"`
	Tags            []string `json:"tags"`
	Prompt          string   `json:"prompt"`
	Content         Content  `json:"-"`
}

// NewProblem is the payload for inserting a problem.
type NewProblem struct {
	OwnerID int64    `json:"owner_id"`
	Topic   Topic    `json:"topic"`
	Tags    []string `json:"tags"`
	Prompt  string   `json:"prompt"`
	Content Content  `json:"-"`
}

// problemJSON mirrors Problem with the content in its encoded form.
type problemJSON struct {
	ID              int64           `json:"id"`
	OwnerID         int64           `json:"owner_id"`
	Recommendations int             `json:"recommendations"`
	Topic           Topic           `json:"topic"`
	Tags            []string        `json:"tags"`
	Prompt          string          `json:"prompt"`
	Content         json.RawMessage `json:"content"`
}

func (p Problem) MarshalJSON() ([]byte, error) {
	content, err := MarshalContent(p.Content)
	if err != nil {
		return nil, err
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(problemJSON{
		ID:              p.ID,
		OwnerID:         p.OwnerID,
		Recommendations: p.Recommendations,
		Topic:           p.Topic,
		Tags:            tags,
		Prompt:          p.Prompt,
		Content:         content,
	})
}

func (p *Problem) UnmarshalJSON(data []byte) error {
	var raw problemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := UnmarshalContent(raw.Content)
	if err != nil {
		return err
	}
	*p = Problem{
		ID:              raw.ID,
		OwnerID:         raw.OwnerID,
		Recommendations: raw.Recommendations,
		Topic:           raw.Topic,
		Tags:            raw.Tags,
		Prompt:          raw.Prompt,
		Content:         content,
	}
	return nil
}

// Kind returns the kind of the problem's content.
func (p Problem) Kind() Kind {
	if p.Content == nil {
		return ""
	}
	return p.Content.Kind()
}
