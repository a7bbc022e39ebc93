package directors

import (
	"go.uber.org/zap"
)

type ServiceManager struct {
	AccessoryService *AccessoryService
	ItemService      *ItemService
	UserService      *UserService
	logger           *zap.SugaredLogger
}

// NewServiceManager bundles the services the HTTP layer dispatches to.
func NewServiceManager(accessoryService *AccessoryService, itemService *ItemService,
	userService *UserService, logger *zap.SugaredLogger) *ServiceManager {
	logger.Info("ServiceManager initialized")
	return &ServiceManager{
		AccessoryService: accessoryService,
		ItemService:      itemService,
		UserService:      userService,
		logger:           logger,
	}
}

// Close releases the resources held by the services.
func (m *ServiceManager) Close() error {
	if m.AccessoryService == nil {
		return nil
	}
	return m.AccessoryService.Close()
}
