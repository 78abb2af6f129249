package messaging

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/Brenda/internal/models"
)

// Processor handles one inbound message end to end, including replies.
type Processor interface {
	ProcessMessage(ctx context.Context, msg models.IncomingMessage) models.ProcessResult
}

// ResponseHandler pumps inbound messages from a Service into a Processor.
// Each message is handled on its own goroutine.
type ResponseHandler struct {
	msgService Service
	processor  Processor
	logger     *slog.Logger
}

// NewResponseHandler creates a handler for msgService.
func NewResponseHandler(msgService Service, processor Processor, logger *slog.Logger) *ResponseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResponseHandler{msgService: msgService, processor: processor, logger: logger}
}

// Start begins the processing loop. It returns immediately; the loop ends
// when ctx is done or the service closes its channel.
func (rh *ResponseHandler) Start(ctx context.Context) {
	rh.logger.Info("ResponseHandler starting response processing")
	go func() {
		defer rh.logger.Info("ResponseHandler stopped response processing")
		for {
			select {
			case msg, ok := <-rh.msgService.Responses():
				if !ok {
					rh.logger.Debug("ResponseHandler responses channel closed")
					return
				}
				go rh.handle(ctx, msg)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (rh *ResponseHandler) handle(ctx context.Context, msg models.IncomingMessage) {
	res := rh.processor.ProcessMessage(ctx, msg)
	if !res.Success {
		rh.logger.Error("ResponseHandler: message processing failed", "from", msg.From, "route", res.Route, "error", res.Error)
		return
	}
	rh.logger.Debug("ResponseHandler: message processed", "userID", res.UserID, "route", res.Route, "replies", len(res.Responses))
}
