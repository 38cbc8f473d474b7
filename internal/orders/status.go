package orders

import "github.com/angelmondragon/storefront-backend/pkg/enums"

// forwardTransitions is the expected fulfillment progression. Cancelled and
// refunded absorb: nothing moves out of them through customer-facing paths.
var forwardTransitions = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusPending:    enums.OrderStatusConfirmed,
	enums.OrderStatusConfirmed:  enums.OrderStatusProcessing,
	enums.OrderStatusProcessing: enums.OrderStatusShipped,
	enums.OrderStatusShipped:    enums.OrderStatusDelivered,
}

// customerCancellable lists the statuses a customer may cancel out of. Once
// an order is confirmed or further along than processing, cancellation goes
// through support.
var customerCancellable = map[enums.OrderStatus]bool{
	enums.OrderStatusPending:    true,
	enums.OrderStatusProcessing: true,
}

// CanCustomerCancel reports whether a customer-initiated cancellation is
// legal from the given status.
func CanCustomerCancel(status enums.OrderStatus) bool {
	return customerCancellable[status]
}

// NextForwardStatus returns the expected next fulfillment step, with ok false
// for terminal or end-of-line statuses.
func NextForwardStatus(status enums.OrderStatus) (enums.OrderStatus, bool) {
	next, ok := forwardTransitions[status]
	return next, ok
}
