package core

import (
	"context"
	"encoding/json"
)

// Task types understood by the outbound worker.
const (
	TaskEmail = "email"
)

type (
	// Task represents outbound work (emails, notices) handed off by request
	// handlers so their delivery never blocks or fails the primary operation.
	Task struct {
		Type string
		Body []byte
	}

	// TaskQueue is the abstraction over queue backends.
	TaskQueue interface {
		Publish(ctx context.Context, task Task) error
		Consume(ctx context.Context) (<-chan Task, error)
	}

	// EmailTask is the payload of a TaskEmail task.
	EmailTask struct {
		ToName    string `json:"to_name"`
		ToAddress string `json:"to_address"`
		Subject   string `json:"subject"`
		Text      string `json:"text"`
	}
)

func (t EmailTask) Task() (Task, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return Task{}, err
	}
	return Task{Type: TaskEmail, Body: body}, nil
}

func DecodeEmailTask(body []byte) (EmailTask, error) {
	var t EmailTask
	err := json.Unmarshal(body, &t)
	return t, err
}
