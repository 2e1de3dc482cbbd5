package events

import (
	"go.uber.org/zap"
)

// LoggingObserver writes one structured log line per domain event, with the
// identifiers of the deck, collection entry or card it concerns.
type LoggingObserver struct {
	logger  *zap.Logger
	verbose bool // Also log the whole payload
}

// NewLoggingObserver creates an observer that logs through logger at debug level.
func NewLoggingObserver(logger *zap.Logger, verbose bool) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingObserver{logger: logger, verbose: verbose}
}

// OnEvent logs event.
func (o *LoggingObserver) OnEvent(event Event) error {
	fields := append([]zap.Field{
		zap.String("event", event.Type),
		zap.String("user_id", event.UserID),
	}, payloadFields(event.Data)...)

	if o.verbose {
		fields = append(fields, zap.Any("data", event.Data))
	}
	o.logger.Debug("domain event", fields...)
	return nil
}

// GetName implements Observer.
func (o *LoggingObserver) GetName() string {
	return "LoggingObserver"
}

// ShouldHandle implements Observer. Every event type is logged.
func (o *LoggingObserver) ShouldHandle(string) bool {
	return true
}

func payloadFields(data any) []zap.Field {
	switch p := data.(type) {
	case DeckEvent:
		fields := []zap.Field{zap.String("deck_id", p.DeckID)}
		if p.Action != "" {
			fields = append(fields, zap.String("action", p.Action))
		}
		return fields
	case CollectionUpdatedEvent:
		return []zap.Field{
			zap.String("entry_id", p.EntryID),
			zap.String("card_id", p.CardID),
			zap.Int("quantity", p.Quantity),
			zap.Bool("removed", p.Removed),
		}
	case CardImportedEvent:
		return []zap.Field{
			zap.String("card_id", p.CardID),
			zap.String("scryfall_id", p.ScryfallID),
		}
	default:
		return nil
	}
}
