package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/app"
	"github.com/AGmitmanipal/BACKEND/internal/domain"
	amqp091 "github.com/rabbitmq/amqp091-go"
)

const (
	defaultMessageTimeout = 5 * time.Second
	defaultPrefetch       = 16
	cancelledMessage      = "Cancelled successfully"
)

var ErrDeliveriesClosed = errors.New("amqp deliveries channel closed")

type Admission interface {
	PreBook(ctx context.Context, in app.AdmissionInput) (app.AdmissionResult, error)
	Reserve(ctx context.Context, in app.AdmissionInput) (app.AdmissionResult, error)
	Cancel(ctx context.Context, reservationID string) (domain.Reservation, error)
}

type ReservationLister interface {
	ListReservationsForRequester(ctx context.Context, requesterID string) ([]app.ReservationView, error)
}

// Publisher sends replies. *amqp091.Channel satisfies it.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Worker executes queued commands against the admission and listing services.
type Worker struct {
	admission Admission
	lister    ReservationLister
	logger    *log.Logger
	timeout   time.Duration
}

type WorkerOption func(*Worker)

// WithMessageTimeout bounds the time spent on one command.
func WithMessageTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func NewWorker(admission Admission, lister ReservationLister, logger *log.Logger, opts ...WorkerOption) *Worker {
	if logger == nil {
		logger = log.Default()
	}
	w := &Worker{
		admission: admission,
		lister:    lister,
		logger:    logger,
		timeout:   defaultMessageTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Subscribe declares the durable command queue and starts a manual-ack consumer on it.
func Subscribe(ch *amqp091.Channel, queue string) (<-chan amqp091.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.Qos(defaultPrefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return msgs, nil
}

// Serve handles deliveries until ctx is done or the channel closes.
func (w *Worker) Serve(ctx context.Context, deliveries <-chan amqp091.Delivery, pub Publisher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			w.handleDelivery(ctx, d, pub)
		}
	}
}

// handleDelivery acknowledges every command it answers. Internal failures are
// requeued once, then rejected with an error reply.
func (w *Worker) handleDelivery(parent context.Context, d amqp091.Delivery, pub Publisher) {
	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	resp := w.Dispatch(ctx, d.Body)

	if !resp.OK && resp.Kind == string(domain.KindInternal) && !d.Redelivered {
		if err := d.Nack(false, true); err != nil {
			w.logger.Printf("failed to nack message: %v", err)
		}
		return
	}

	w.reply(ctx, d, pub, resp)

	var err error
	if !resp.OK && resp.Kind == string(domain.KindInternal) {
		err = d.Nack(false, false)
	} else {
		err = d.Ack(false)
	}
	if err != nil {
		w.logger.Printf("failed to ack message: %v", err)
	}
}

func (w *Worker) reply(ctx context.Context, d amqp091.Delivery, pub Publisher, resp Response) {
	if d.ReplyTo == "" || pub == nil {
		return
	}
	body, err := json.Marshal(resp)
	if err != nil {
		w.logger.Printf("failed to marshal response: %v", err)
		return
	}
	err = pub.PublishWithContext(ctx, "", d.ReplyTo, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		CorrelationId: d.CorrelationId,
		Body:          body,
	})
	if err != nil {
		w.logger.Printf("failed to publish response: %v", err)
	}
}

// Dispatch decodes one command body and runs it.
func (w *Worker) Dispatch(ctx context.Context, body []byte) Response {
	var env CommandEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return invalidResponse("invalid command format: " + err.Error())
	}

	switch env.Type {
	case CommandPreBook:
		return w.admit(ctx, env, w.admission.PreBook)
	case CommandReserve:
		return w.admit(ctx, env, w.admission.Reserve)
	case CommandCancel:
		return w.cancel(ctx, env)
	case CommandListReservations:
		return w.list(ctx, env)
	default:
		return invalidResponse("unknown command type: " + string(env.Type))
	}
}

func (w *Worker) admit(ctx context.Context, env CommandEnvelope, fn func(context.Context, app.AdmissionInput) (app.AdmissionResult, error)) Response {
	var p AdmissionPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return invalidResponse("invalid payload: " + err.Error())
	}

	res, err := fn(ctx, app.AdmissionInput{
		RequesterID: env.RequesterID,
		ZoneID:      p.ZoneID,
		FromTime:    p.FromTime,
		ToTime:      p.ToTime,
	})
	if err != nil {
		return w.errorResponse(env.Type, err)
	}

	out := toReservationPayload(res.Reservation)
	out.Message = res.Message()
	return okResponse(env.Type, out)
}

func (w *Worker) cancel(ctx context.Context, env CommandEnvelope) Response {
	var p CancelPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return invalidResponse("invalid payload: " + err.Error())
	}

	r, err := w.admission.Cancel(ctx, p.ReservationID)
	if err != nil {
		return w.errorResponse(env.Type, err)
	}

	out := toReservationPayload(r)
	out.Message = cancelledMessage
	return okResponse(env.Type, out)
}

func (w *Worker) list(ctx context.Context, env CommandEnvelope) Response {
	views, err := w.lister.ListReservationsForRequester(ctx, env.RequesterID)
	if err != nil {
		return w.errorResponse(env.Type, err)
	}

	out := ListReservationsPayload{Reservations: make([]ReservationPayload, 0, len(views))}
	for _, v := range views {
		p := toReservationPayload(v.Reservation)
		p.ZoneName = v.ZoneName
		out.Reservations = append(out.Reservations, p)
	}
	return okResponse(env.Type, out)
}

func (w *Worker) errorResponse(t CommandType, err error) Response {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		w.logger.Printf("command %s failed: %v", t, err)
	}
	return Response{
		OK:    false,
		Error: domain.MessageOf(err),
		Code:  domain.CodeOf(err),
		Kind:  string(kind),
		Type:  "Error",
	}
}

func invalidResponse(msg string) Response {
	return Response{
		OK:    false,
		Error: msg,
		Code:  "invalid_command",
		Kind:  string(domain.KindInvalidInput),
		Type:  "Error",
	}
}

func okResponse(t CommandType, payload any) Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{OK: false, Error: "internal error", Code: domain.CodeInternal, Kind: string(domain.KindInternal), Type: "Error"}
	}
	return Response{OK: true, Type: string(t), Payload: body}
}

func toReservationPayload(r domain.Reservation) ReservationPayload {
	return ReservationPayload{
		ID:       r.ID,
		ZoneID:   r.ZoneID,
		FromTime: r.FromTime,
		ToTime:   r.ToTime,
		Status:   string(r.Status),
		ParkedAt: r.ParkedAt.Ptr(),
	}
}
