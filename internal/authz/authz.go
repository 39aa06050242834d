// Package authz holds the per-operation authorization checks. Each check
// takes the actor and the resource it targets and returns a Decision; callers
// compose them with plain function calls.
package authz

import "storefront/internal/domain"

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err converts a denial into a forbidden error. It returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.Forbidden(d.Reason)
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// All returns the first denial among decisions, or allow.
func All(decisions ...Decision) Decision {
	for _, d := range decisions {
		if !d.Allowed {
			return d
		}
	}
	return allow
}

func Authenticated(actor domain.Actor) Decision {
	if actor.UserID == "" {
		return deny("authentication required")
	}
	return allow
}

func StaffOnly(actor domain.Actor) Decision {
	if !actor.IsStaff {
		return deny("only staff members can perform this action")
	}
	return allow
}

// OrderOwnerOrStaff allows the buyer of the order and staff.
func OrderOwnerOrStaff(actor domain.Actor, order domain.Order) Decision {
	if actor.IsStaff || (actor.UserID != "" && actor.UserID == order.BuyerID) {
		return allow
	}
	return deny("you do not have permission to access this order")
}

// CheckoutWritable allows checkout writes only while the order is pending.
func CheckoutWritable(order domain.Order) Decision {
	if !order.IsPending() {
		return deny("checkout can only be updated while the order is pending")
	}
	return allow
}

// ManageProduct allows the product's seller and staff.
func ManageProduct(actor domain.Actor, product domain.Product) Decision {
	if actor.IsStaff || (actor.UserID != "" && actor.UserID == product.SellerID) {
		return allow
	}
	return deny("only the seller or staff can modify this product")
}

// NotOwnProduct rejects buyers adding their own listings to a cart.
func NotOwnProduct(actor domain.Actor, product domain.Product) Decision {
	if actor.UserID == product.SellerID {
		return deny("you cannot buy your own product")
	}
	return allow
}
