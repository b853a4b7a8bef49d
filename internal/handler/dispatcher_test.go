package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/hotel-floor-reservation/internal/codec"
	"github.com/iliyamo/hotel-floor-reservation/internal/model"
	"github.com/iliyamo/hotel-floor-reservation/internal/queue"
	"github.com/iliyamo/hotel-floor-reservation/internal/repository"
	"github.com/iliyamo/hotel-floor-reservation/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationChangedEvent
	err    error
}

func (p *recordingPublisher) PublishReservationChanged(_ context.Context, ev queue.ReservationChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) snapshot() []queue.ReservationChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.ReservationChangedEvent(nil), p.events...)
}

// failingMailbox refuses every send.
type failingMailbox struct{ *queue.MemoryMailbox }

func (failingMailbox) Send(context.Context, []byte) error { return errors.New("queue gone") }

// startDispatcher runs a dispatcher over an in-memory pair and returns
// a client for it.  The dispatcher is stopped when the test ends.
func startDispatcher(t *testing.T, store *repository.ReservationStore, events EventPublisher) (*queue.Client, *Dispatcher) {
	t.Helper()
	pair := queue.NewMemoryPair()
	dispatcher := NewDispatcher(store, pair.Server, pair.Client, events, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dispatcher.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("dispatcher did not stop")
		}
	})
	return queue.NewClient(pair, 0), dispatcher
}

func do(t *testing.T, client *queue.Client, action, floor string, room int) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := client.Do(ctx, model.Request{Action: action, Floor: floor, Room: room})
	if err != nil {
		t.Fatalf("Do(%s %s %d): %v", action, floor, room, err)
	}
	return reply
}

// statusDigits returns the digits of a status line, one per room.
func statusDigits(t *testing.T, line string) []string {
	t.Helper()
	fields := strings.Fields(line)
	if len(fields) != model.RoomCount+1 {
		t.Fatalf("status line %q has %d fields, want %d", line, len(fields), model.RoomCount+1)
	}
	return fields[1:]
}

func TestDispatcherEndToEnd(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	client, _ := startDispatcher(t, store, nil)

	if reply := do(t, client, "reserve", "2ndFloor", 5); reply != model.ReplySuccess {
		t.Fatalf("reserve = %q, want success", reply)
	}

	line := do(t, client, "show", "2nd", 0)
	if !strings.HasPrefix(line, "2ndFloor ") || !strings.HasSuffix(line, " ") {
		t.Fatalf("show = %q", line)
	}
	for room, digit := range statusDigits(t, line) {
		want := "0"
		if room == 5 {
			want = "1"
		}
		if digit != want {
			t.Errorf("room %d = %s, want %s", room, digit, want)
		}
	}

	if reply := do(t, client, "free", "2ndFloor", 5); reply != model.ReplySuccess {
		t.Fatalf("free = %q, want success", reply)
	}
	for room, digit := range statusDigits(t, do(t, client, "show", "2nd", 0)) {
		if digit != "0" {
			t.Errorf("room %d = %s after free, want 0", room, digit)
		}
	}
}

func TestDispatcherErrorReplies(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	client, _ := startDispatcher(t, store, nil)

	if reply := do(t, client, "reserve", "1stFloor", 0); reply != model.ReplySuccess {
		t.Fatalf("reserve = %q", reply)
	}

	tests := []struct {
		name   string
		action string
		floor  string
		room   int
	}{
		{"already reserved", "reserve", "1stFloor", 0},
		{"not reserved", "free", "1stFloor", 1},
		{"room too large for reserve", "reserve", "1stFloor", model.RoomCount},
		{"room too large for free", "free", "1stFloor", model.RoomCount},
		{"negative room", "reserve", "1stFloor", -1},
		{"prefix floor on reserve", "reserve", "1st", 3},
		{"unknown show prefix", "show", "8th", 0},
		{"unknown action", "book", "1stFloor", 0},
		{"action is not a prefix match", "res", "1stFloor", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if reply := do(t, client, tt.action, tt.floor, tt.room); reply != model.ReplyError {
				t.Fatalf("reply = %q, want error", reply)
			}
		})
	}

	if reply := do(t, client, "reserve", "1stFloor", model.RoomCount-1); reply != model.ReplySuccess {
		t.Fatalf("reserve upper boundary = %q, want success", reply)
	}
}

func TestExecuteRejectsOverlongAndUnknown(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	dispatcher := NewDispatcher(store, queue.NewMemoryMailbox(), queue.NewMemoryMailbox(), nil, discardLogger())
	ctx := context.Background()

	reply, err := dispatcher.Execute(ctx, model.Request{Action: "cancelroom", Floor: "1stFloor"})
	if reply != model.ReplyError || !errors.Is(err, model.ErrFieldTooLong) {
		t.Fatalf("Execute(cancelroom) = %q, %v", reply, err)
	}
	reply, err = dispatcher.Execute(ctx, model.Request{Action: "cancel", Floor: "1stFloor"})
	if reply != model.ReplyError || !errors.Is(err, repository.ErrUnrecognizedCommand) {
		t.Fatalf("Execute(cancel) = %q, %v", reply, err)
	}
	reply, err = dispatcher.Execute(ctx, model.Request{Action: "show", Floor: "9th"})
	if reply != model.ReplyError || !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Execute(show 9th) = %q, %v", reply, err)
	}
}

func TestHandleAnswersGarbageWithError(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	dispatcher := NewDispatcher(store, queue.NewMemoryMailbox(), queue.NewMemoryMailbox(), nil, discardLogger())
	if reply := dispatcher.Handle(context.Background(), []byte{0xff, 0x00}); reply.Text != model.ReplyError || reply.ID != 0 {
		t.Fatalf("Handle(garbage) = %+v, want error with id 0", reply)
	}
}

func TestHandleEchoesRequestID(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	dispatcher := NewDispatcher(store, queue.NewMemoryMailbox(), queue.NewMemoryMailbox(), nil, discardLogger())
	payload, err := codec.EncodeRequest(model.Request{Action: "reserve", Floor: "5thFloor", Room: 3, ID: 99}, 0)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	reply := dispatcher.Handle(context.Background(), payload)
	if reply.ID != 99 || reply.Text != model.ReplySuccess {
		t.Fatalf("Handle = %+v, want success with id 99", reply)
	}
}

// A client that gives up after its request was queued must not see
// that request's answer as the reply to its next one.
func TestAbandonedExchangeReplyIsNotReused(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	pair := queue.NewMemoryPair()
	client := queue.NewClient(pair, 0)

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Do(short, model.Request{Action: "reserve", Floor: "1stFloor", Room: 0})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("first Do = %v, want DeadlineExceeded", err)
	}

	dispatcher := NewDispatcher(store, pair.Server, pair.Client, nil, discardLogger())
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dispatcher.Run(ctx) }()
	defer func() {
		stop()
		<-done
	}()

	line := do(t, client, "show", "1stFloor", 0)
	if !strings.HasPrefix(line, "1stFloor ") {
		t.Fatalf("show = %q, want the 1stFloor status line", line)
	}
	// The abandoned reserve still ran.
	if digits := statusDigits(t, line); digits[0] != "1" {
		t.Fatalf("room 0 = %s, want 1", digits[0])
	}
}

func TestDispatcherPublishesEvents(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	publisher := &recordingPublisher{err: errors.New("broker down")}
	client, _ := startDispatcher(t, store, publisher)

	// A failing publisher never changes the reply.
	if reply := do(t, client, "reserve", "3rdFloor", 4); reply != model.ReplySuccess {
		t.Fatalf("reserve = %q", reply)
	}
	if reply := do(t, client, "reserve", "3rdFloor", 4); reply != model.ReplyError {
		t.Fatalf("second reserve = %q", reply)
	}
	if reply := do(t, client, "free", "3rdFloor", 4); reply != model.ReplySuccess {
		t.Fatalf("free = %q", reply)
	}

	events := publisher.snapshot()
	if len(events) != 2 {
		t.Fatalf("published %d events, want 2: %+v", len(events), events)
	}
	if events[0].Action != "reserve" || events[0].Count != 1 || events[0].Floor != "3rdFloor" || events[0].Room != 4 {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Action != "free" || events[1].Count != 0 {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestDispatcherStopsOnCancellation(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	pair := queue.NewMemoryPair()
	dispatcher := NewDispatcher(store, pair.Server, pair.Client, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dispatcher.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for dispatcher.State() != StateRunning {
		if time.Now().After(deadline) {
			t.Fatal("dispatcher never reached running state")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if dispatcher.State() != StateStopped {
		t.Fatalf("State = %v, want stopped", dispatcher.State())
	}
}

func TestDispatcherFailsWhenReplyCannotBeSent(t *testing.T) {
	store := repository.NewReservationStore(model.DefaultFloors())
	inbox := queue.NewMemoryMailbox()
	outbox := failingMailbox{queue.NewMemoryMailbox()}
	dispatcher := NewDispatcher(store, inbox, outbox, nil, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := inbox.Send(ctx, []byte{0xff}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	err := dispatcher.Run(ctx)
	if !errors.Is(err, ErrReplyUndeliverable) {
		t.Fatalf("Run = %v, want ErrReplyUndeliverable", err)
	}
}

func TestExecuteIsNotDelayedByUnresponsiveBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	held := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			held <- conn
		}
	}()
	defer func() {
		for len(held) > 0 {
			(<-held).Close()
		}
	}()

	publisher := service.NewEventPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", 0, discardLogger())
	publisher.DialTimeout = 200 * time.Millisecond
	publisher.Start(context.Background())
	defer publisher.Close()

	store := repository.NewReservationStore(model.DefaultFloors())
	dispatcher := NewDispatcher(store, queue.NewMemoryMailbox(), queue.NewMemoryMailbox(), publisher, discardLogger())

	start := time.Now()
	for room := 0; room < 3; room++ {
		reply, err := dispatcher.Execute(context.Background(), model.Request{Action: "reserve", Floor: "1stFloor", Room: room})
		if reply != model.ReplySuccess || err != nil {
			t.Fatalf("Execute(reserve %d) = %q, %v", room, reply, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("three reserves took %v with a silent broker", elapsed)
	}
}
