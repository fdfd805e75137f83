package events

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/salesagentai/outreach-backend/internal/model"
	"github.com/salesagentai/outreach-backend/internal/queue"
)

// EmailEventRepository is the slice of the email store the consumer needs.
type EmailEventRepository interface {
	GetByID(id uuid.UUID) (*model.OutreachEmail, error)
	UpdateStatus(id uuid.UUID, status string) error
}

// StatusForEvent maps a provider webhook event name to an email status.
// Unknown or purely informational events (e.g. "processed") map to nothing.
func StatusForEvent(event string) (string, bool) {
	switch event {
	case "delivered":
		return model.EmailStatusDelivered, true
	case "open":
		return model.EmailStatusOpened, true
	case "click":
		// A click implies the email was opened.
		return model.EmailStatusOpened, true
	case "bounce":
		return model.EmailStatusBounced, true
	case "dropped":
		return model.EmailStatusDropped, true
	case "spamreport":
		return model.EmailStatusSpamReported, true
	case "unsubscribe", "group_unsubscribe":
		return model.EmailStatusUnsubscribed, true
	default:
		return "", false
	}
}

// statusRank orders delivery statuses so a late-arriving event can never
// regress an email (an "opened" email never goes back to "delivered").
var statusRank = map[string]int{
	model.EmailStatusSent:         1,
	model.EmailStatusDelivered:    2,
	model.EmailStatusOpened:       3,
	model.EmailStatusReplied:      4,
	model.EmailStatusBounced:      5,
	model.EmailStatusDropped:      5,
	model.EmailStatusUnsubscribed: 6,
	model.EmailStatusSpamReported: 6,
}

// Consumer applies provider delivery events from the queue to email rows.
type Consumer struct {
	Repo EmailEventRepository
	URL  string
}

// Run blocks consuming delivery events until the connection drops. Failed
// events are redelivered up to three times via the x-retry-count header,
// then dropped.
func (c *Consumer) Run() error {
	conn, err := amqp.Dial(c.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(queue.DeliveryEventsQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Println("Worker running, waiting for delivery events...")
	for d := range msgs {
		if err := c.handle(d.Body); err != nil {
			log.Println("Failed to apply delivery event:", err)
			attempts := retryCount(d.Headers)
			if attempts < maxEventRetries {
				// Republish with the incremented counter rather than
				// nacking; a plain requeue keeps the original headers and
				// the counter would never move.
				if rerr := republish(ch, d.Body, attempts+1); rerr != nil {
					log.Println("Failed to requeue delivery event:", rerr)
					d.Nack(false, true)
					continue
				}
			} else {
				log.Printf("Dropping delivery event after %d attempts", attempts+1)
			}
		}
		d.Ack(false)
	}
	return fmt.Errorf("delivery event stream closed")
}

const maxEventRetries = 3

// retryCount reads the x-retry-count header. The amqp library hands small
// integers back as either int32 or int64 depending on who published them.
func retryCount(headers amqp.Table) int32 {
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	}
	return 0
}

func republish(ch *amqp.Channel, body []byte, attempts int32) error {
	return ch.Publish(
		"",
		queue.DeliveryEventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Headers:     amqp.Table{"x-retry-count": attempts},
			Body:        body,
		},
	)
}

func (c *Consumer) handle(body []byte) error {
	var ev queue.DeliveryEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Println("Invalid event payload:", err)
		return nil // malformed, no retry
	}

	status, ok := StatusForEvent(ev.Event)
	if !ok {
		return nil
	}

	emailID, err := uuid.Parse(ev.EmailID)
	if err != nil {
		log.Printf("Invalid email id %q in event %q", ev.EmailID, ev.Event)
		return nil
	}

	return c.Apply(emailID, status)
}

// Apply updates an email's status if the event advances it. Events for
// emails the dispatcher never sent are ignored.
func (c *Consumer) Apply(emailID uuid.UUID, status string) error {
	email, err := c.Repo.GetByID(emailID)
	if err != nil {
		return err
	}
	if email == nil {
		log.Println("Event for unknown email:", emailID)
		return nil
	}

	current, known := statusRank[email.Status]
	if !known {
		// draft/approved/failed emails were never handed to the provider.
		return nil
	}
	if statusRank[status] <= current {
		return nil
	}

	if err := c.Repo.UpdateStatus(emailID, status); err != nil {
		return err
	}
	log.Printf("Email %s: %s -> %s", emailID, email.Status, status)
	return nil
}
