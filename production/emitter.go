package production

import "github.com/shopspring/decimal"

// Emitter is the interface the production package uses to emit events.
type Emitter interface {
	EmitOrderCreated(orderID int64, orderNumber string, productID int64, quantity int)
	EmitOrderStarted(orderID int64, orderNumber string)
	EmitOrderCompleted(orderID int64, orderNumber string, finishedGoodID int64)
	EmitOrderCancelled(orderID int64, orderNumber, fromStatus string)
	EmitFinishedGoodCreated(finishedGoodID, productID int64, batchNumber string, quantity decimal.Decimal)
	EmitLowStock(materialID int64, code string, current, minimum decimal.Decimal)
}

type nopEmitter struct{}

func (nopEmitter) EmitOrderCreated(int64, string, int64, int)                    {}
func (nopEmitter) EmitOrderStarted(int64, string)                                {}
func (nopEmitter) EmitOrderCompleted(int64, string, int64)                       {}
func (nopEmitter) EmitOrderCancelled(int64, string, string)                      {}
func (nopEmitter) EmitFinishedGoodCreated(int64, int64, string, decimal.Decimal) {}
func (nopEmitter) EmitLowStock(int64, string, decimal.Decimal, decimal.Decimal)  {}
