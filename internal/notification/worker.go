package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"garage-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// StatusJob describes one status change to announce to a customer.
type StatusJob struct {
	WorkOrderID int64
	CustomerID  int64
	Status      model.WorkOrderStatus
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan StatusJob
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan StatusJob, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			log.Printf("Worker %d processing work order %d", id, job.WorkOrderID)
			wp.sendNotificationsForJob(ctx, job)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job without blocking. Status transitions must never wait
// on the push pipeline, so when the queue is full the job is dropped and
// logged instead.
func (wp *WorkerPool) Dispatch(job StatusJob) {
	select {
	case wp.jobs <- job:
	default:
		log.Printf("Notification queue full, dropping job for work order %d", job.WorkOrderID)
	}
}

// OnStatusChanged adapts the pool to the coordinator's status hook.
func (wp *WorkerPool) OnStatusChanged(wo *model.WorkOrder, b *model.Booking) {
	wp.Dispatch(StatusJob{
		WorkOrderID: wo.ID,
		CustomerID:  b.CustomerID,
		Status:      wo.Status,
	})
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan StatusJob {
	return wp.jobs
}

// sendNotificationsForJob fetches the customer's subscriptions and pushes the
// status change to each of them.
func (wp *WorkerPool) sendNotificationsForJob(ctx context.Context, job StatusJob) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("customer_id = ?", job.CustomerID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for customer %d: %v", job.CustomerID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for work order %d", len(subscriptions), job.WorkOrderID)

	message := fmt.Sprintf("Your work order #%d is now %s", job.WorkOrderID, job.Status)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
