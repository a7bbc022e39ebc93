package directors

import (
	"shopfront/src/models"

	"go.uber.org/zap"
)

type ItemReadResult struct {
	ItemID int     `json:"item_id"`
	Q      *string `json:"q"`
}

type ItemUpdateResult struct {
	ItemName string `json:"item_name"`
	ItemID   int    `json:"item_id"`
}

// ItemService echoes item requests back. Items are never stored.
type ItemService struct {
	logger *zap.SugaredLogger
}

func NewItemService(logger *zap.SugaredLogger) *ItemService {
	return &ItemService{logger: logger}
}

func (s *ItemService) ReadItem(itemID int, q *string) ItemReadResult {
	return ItemReadResult{ItemID: itemID, Q: q}
}

func (s *ItemService) UpdateItem(itemID int, item models.Item) ItemUpdateResult {
	s.logger.Debugw("Item update received", "id", itemID, "name", item.Name, "price", item.Price)
	return ItemUpdateResult{ItemName: item.Name, ItemID: itemID}
}
