package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
)

// Dispatcher runs stages in order and returns the first reply. Stages
// never see each other's state and nothing is cached between requests.
type Dispatcher struct {
	offline Handler
	online  []Handler
}

// NewDispatcher builds the chain: offline first, then the online stages.
func NewDispatcher(offline Handler, online ...Handler) *Dispatcher {
	return &Dispatcher{offline: offline, online: online}
}

// NewDefaultDispatcher wires the standard stage order over store.
func NewDefaultDispatcher(cfg Config, store Store) (*Dispatcher, error) {
	offline, err := LoadOffline(cfg.OfflineFAQPath)
	if err != nil {
		return nil, err
	}
	var llm Completer
	if cfg.LLMEnabled() {
		llm = NewLLMClient(cfg)
	}
	return NewDispatcher(offline,
		NewFAQStage(store),
		NavigationStage{},
		NewDatabaseStage(store),
		NewLLMStage(llm),
	), nil
}

// Answer always returns a reply. Offline mode only consults the offline
// table; online mode ends with the apology.
func (d *Dispatcher) Answer(ctx context.Context, q Query) Reply {
	q.Normalized = Normalize(q.Text)
	if q.Normalized == "" {
		if q.Online {
			return Reply{Message: Apology, Source: SourceFallback, Category: "general"}
		}
		return Reply{Message: OfflineDefault, Source: SourceOffline, Category: "general"}
	}

	if !q.Online {
		if r := d.run(ctx, d.offline, q); r != nil {
			return *r
		}
		return Reply{Message: OfflineDefault, Source: SourceOffline, Category: "general"}
	}

	if r := d.run(ctx, d.offline, q); r != nil {
		return *r
	}
	for _, h := range d.online {
		if r := d.run(ctx, h, q); r != nil {
			return *r
		}
	}
	return Reply{Message: Apology, Source: SourceFallback, Category: "general"}
}

// run calls one stage, turning errors and panics into a fall-through.
func (d *Dispatcher) run(ctx context.Context, h Handler, q Query) (reply *Reply) {
	if h == nil {
		return nil
	}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.WithField("stage", h.Name()).WithError(fmt.Errorf("panic: %v", p)).Error("[chat] stage panicked")
			reply = nil
		}
	}()

	r, err := h.Handle(ctx, q)
	if err != nil {
		log.WithFields(log.Fields{"stage": h.Name(), "elapsed": time.Since(start)}).
			WithError(err).Warn("[chat] stage failed")
		return nil
	}
	if r != nil {
		log.WithFields(log.Fields{"stage": h.Name(), "source": r.Source, "category": r.Category}).Debug("[chat] answered")
	}
	return r
}
