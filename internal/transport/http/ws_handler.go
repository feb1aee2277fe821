package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
	"quiz-runner/internal/pubsub"
)

// WSHandler serves one timed quiz attempt per websocket connection: the
// server pushes session and countdown events, the client submits answers.
// writeWait bounds each outbound write so a stalled peer cannot park the
// writer goroutine forever.
const writeWait = 10 * time.Second

type WSHandler struct {
	service  *app.QuizService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer json.RawMessage `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type questionPayload struct {
	Number  int      `json:"number"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Kind    string   `json:"kind"`
	Options []string `json:"options,omitempty"`
	Points  int      `json:"points"`
}

type tickPayload struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz attempt
// over the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	setID := r.URL.Query().Get("set")
	name := r.URL.Query().Get("name")
	if setID == "" || name == "" {
		http.Error(w, "missing set or name", http.StatusBadRequest)
		return
	}
	var duration time.Duration
	if raw := r.URL.Query().Get("duration"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			http.Error(w, "duration must be a positive number of seconds", http.StatusBadRequest)
			return
		}
		duration = time.Duration(secs) * time.Second
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session, err := h.service.NewAttempt(r.Context(), setID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	// The writer exits through closeSignals rather than a channel close so
	// that a late timer event can never hit a closed send channel.
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-closeSignals:
				return
			case msg := <-send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					h.log.Debug("ws write error", zap.Error(err))
					return
				}
			}
		}
	}()

	// queue hands a message to the writer. Once the writer has exited, on a
	// write error or during teardown, messages are discarded instead of
	// blocking the read loop or an event callback on a dead connection.
	queue := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		case <-closeSignals:
		}
	}

	var finishOnce sync.Once
	finish := func() {
		finishOnce.Do(func() {
			summary, err := h.service.Finish(r.Context(), session)
			if err != nil {
				return
			}
			queue(outboundMessage[any]{Type: "complete", Payload: summary})
		})
	}

	forwarder := &eventForwarder{send: send, closed: closeSignals, onComplete: finish}
	session.Events().Subscribe(forwarder)

	if err := session.Start(name, duration); err != nil {
		queue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	} else {
		session.Timer().Events().Subscribe(forwarder)
		if msg, ok := currentQuestionMessage(session); ok {
			queue(msg)
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			h.handleAnswer(session, inbound.Payload, queue)
		case "progress":
			queue(outboundMessage[any]{Type: "progress", Payload: session.Progress()})
		default:
			queue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	finish()
	session.Events().Unsubscribe(forwarder)
	if t := session.Timer(); t != nil {
		t.Events().Unsubscribe(forwarder)
	}
	close(closeSignals)
	<-writerDone
}

func (h *WSHandler) handleAnswer(session *app.Session, raw json.RawMessage, queue func(outboundMessage[any])) {
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		queue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
		return
	}
	question, ok := session.CurrentQuestion()
	if !ok {
		queue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "no current question"}})
		return
	}
	candidate, err := decodeCandidate(question, payload.Answer)
	if err != nil {
		queue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	result, err := session.SubmitAnswer(candidate)
	if err != nil {
		queue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	queue(outboundMessage[any]{Type: "answerResult", Payload: result})
	if msg, ok := currentQuestionMessage(session); ok {
		queue(msg)
	}
}

// decodeCandidate translates the raw JSON answer into a typed candidate: a
// number selects a 1-based option for single-choice questions, a bool or
// string is passed through as-is. Anything else is submitted untyped and
// scored as incorrect by the question itself.
func decodeCandidate(question domain.Question, raw json.RawMessage) (any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	if n, ok := value.(float64); ok && question.Kind() == domain.KindSingleChoice {
		options := question.Options()
		idx := int(n)
		if idx < 1 || idx > len(options) {
			return nil, domain.ErrInvalidInput
		}
		return options[idx-1], nil
	}
	return value, nil
}

func currentQuestionMessage(session *app.Session) (outboundMessage[any], bool) {
	progress := session.Progress()
	if !progress.Active {
		return outboundMessage[any]{}, false
	}
	question, ok := session.CurrentQuestion()
	if !ok {
		return outboundMessage[any]{}, false
	}
	return outboundMessage[any]{Type: "question", Payload: questionPayload{
		Number:  progress.QuestionNumber,
		Total:   progress.TotalQuestions,
		Prompt:  question.Prompt(),
		Kind:    string(question.Kind()),
		Options: question.Options(),
		Points:  question.Points(),
	}}, true
}

// eventForwarder bridges session/timer events onto the connection's send
// channel. Notify runs on the publisher's goroutine, so sends never block:
// a full channel drops the oldest message first, which only ever costs a
// stale tick.
type eventForwarder struct {
	send       chan outboundMessage[any]
	closed     chan struct{}
	onComplete func()
}

func (f *eventForwarder) Notify(event pubsub.Event) {
	var msg outboundMessage[any]
	switch event.Kind {
	case app.EventQuizStarted:
		payload := event.Data.(app.QuizStartedPayload)
		msg = outboundMessage[any]{Type: "started", Payload: map[string]any{
			"participant":     payload.Participant,
			"durationSeconds": int(payload.Duration.Seconds()),
		}}
	case app.EventTimerTick:
		payload := event.Data.(app.TimerTickPayload)
		msg = outboundMessage[any]{Type: "tick", Payload: tickPayload{RemainingSeconds: int(payload.Remaining.Seconds())}}
	case app.EventTimerExpired:
		msg = outboundMessage[any]{Type: "expired", Payload: struct{}{}}
	case app.EventQuizComplete:
		// Recording and the summary message go through finish so they
		// happen exactly once whether time ran out or the client ended.
		if f.onComplete != nil {
			f.onComplete()
		}
		return
	default:
		return
	}

	select {
	case <-f.closed:
	case f.send <- msg:
	default:
		select {
		case <-f.send:
		default:
		}
		select {
		case f.send <- msg:
		default:
		}
	}
}
