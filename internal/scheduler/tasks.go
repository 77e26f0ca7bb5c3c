package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCampaignEmailSend = "campaigns.email.send"

type CampaignEmailSendPayload struct {
	EmailID string `json:"emailId"`
}

func NewCampaignEmailSendTask(payload CampaignEmailSendPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCampaignEmailSend, data), nil
}

func ParseCampaignEmailSendPayload(task *asynq.Task) (CampaignEmailSendPayload, error) {
	var payload CampaignEmailSendPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CampaignEmailSendPayload{}, err
	}
	return payload, nil
}
