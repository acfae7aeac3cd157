package badger

import (
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// badgerLoggerAdapter routes Badger's printf-style logs into zap
type badgerLoggerAdapter struct {
	logger *zap.Logger
}

var _ badgerdb.Logger = (*badgerLoggerAdapter)(nil)

func (b *badgerLoggerAdapter) Errorf(format string, args ...interface{}) {
	b.logger.Error(fmt.Sprintf(format, args...), zap.String("component", "badger"))
}

func (b *badgerLoggerAdapter) Warningf(format string, args ...interface{}) {
	b.logger.Warn(fmt.Sprintf(format, args...), zap.String("component", "badger"))
}

func (b *badgerLoggerAdapter) Infof(format string, args ...interface{}) {
	b.logger.Info(fmt.Sprintf(format, args...), zap.String("component", "badger"))
}

// Debugf is dropped unless the logger runs at debug level
func (b *badgerLoggerAdapter) Debugf(format string, args ...interface{}) {
	if ce := b.logger.Check(zap.DebugLevel, "badger"); ce != nil {
		b.logger.Debug(fmt.Sprintf(format, args...), zap.String("component", "badger"))
	}
}
