package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"givebox/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TaskFollowUpScan  = "followup:scan"
	TaskBroadcastSend = "broadcast:send"
)

// followUpScanInterval is the cron spec for the periodic follow-up sweep.
const followUpScanInterval = "* * * * *"

// BroadcastPayload is the broadcast:send task body.
type BroadcastPayload struct {
	BotID   int64   `json:"botId"`
	UserIDs []int64 `json:"userIds"`
	Text    string  `json:"text"`
}

type JobServer struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	client    *asynq.Client
	followups *service.FollowUpService
	broadcast *service.BroadcastService
	log       *zap.Logger
}

func NewJobServer(redisAddr string, followups *service.FollowUpService, broadcast *service.BroadcastService, log *zap.Logger) (*JobServer, *asynq.Client) {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	client := asynq.NewClient(redisOpt)

	return &JobServer{
		server:    server,
		scheduler: scheduler,
		client:    client,
		followups: followups,
		broadcast: broadcast,
		log:       log,
	}, client
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TaskFollowUpScan, js.handleFollowUpScan)
	mux.HandleFunc(TaskBroadcastSend, js.handleBroadcastSend)

	if _, err := js.scheduler.Register(followUpScanInterval,
		asynq.NewTask(TaskFollowUpScan, nil), asynq.Queue("low")); err != nil {
		return fmt.Errorf("failed to register follow-up scan: %w", err)
	}
	if err := js.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.scheduler.Shutdown()
	js.server.Shutdown()
	js.client.Close()
}

// Job handlers

func (js *JobServer) handleFollowUpScan(ctx context.Context, _ *asynq.Task) error {
	sent, err := js.followups.Run(ctx)
	if err != nil {
		return fmt.Errorf("follow-up scan failed: %w", err)
	}
	if sent > 0 {
		js.log.Info("Follow-up scan complete", zap.Int("sent", sent))
	}
	return nil
}

func (js *JobServer) handleBroadcastSend(ctx context.Context, t *asynq.Task) error {
	var p BroadcastPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid broadcast payload: %w", err)
	}

	sent, err := js.broadcast.Send(ctx, p.BotID, p.UserIDs, p.Text)
	if err != nil {
		return fmt.Errorf("broadcast failed: %w", err)
	}

	js.log.Info("Broadcast job complete",
		zap.Int64("bot_id", p.BotID),
		zap.Int("requested", len(p.UserIDs)),
		zap.Int("delivered", sent))
	return nil
}

// Schedule jobs

// Client is the enqueue-side handle HTTP handlers use.
type Client struct {
	client *asynq.Client
}

func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

func (c *Client) EnqueueBroadcast(botID int64, userIDs []int64, text string) error {
	return EnqueueBroadcast(c.client, botID, userIDs, text)
}

func EnqueueBroadcast(client *asynq.Client, botID int64, userIDs []int64, text string) error {
	payload, err := json.Marshal(BroadcastPayload{BotID: botID, UserIDs: userIDs, Text: text})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskBroadcastSend, payload)
	_, err = client.Enqueue(task, asynq.Queue("default"))
	return err
}
