package waitlist

import (
	"github.com/bloomcare/bloom-waitlist/config/router"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/pkg/factory"
)

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	logger   *log.Logger
	capturer Capturer
	limiters factory.RateLimiterFactory
}

func NewWaitlistServiceFactory(logger *log.Logger, capturer Capturer, limiters factory.RateLimiterFactory) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		logger:   logger,
		capturer: capturer,
		limiters: limiters,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	return NewWaitlistService(f.logger, f.capturer)
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.logger, f.capturer, f.limiters)
}
