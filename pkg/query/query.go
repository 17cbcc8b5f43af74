// Package query implements the read-only pipeline over an order snapshot:
// filter, then search, then sort, then paginate, always in that order. None
// of the stages mutate their input.
package query

import (
	"sort"
	"strings"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Apply runs the full pipeline and returns one page.
func Apply(orders []*model.Order, f model.OrderFilter, search, sortBy, sortOrder string, page, size int) model.PaginatedOrders {
	matched := Filter(orders, f)
	if search != "" {
		matched = Search(matched, search)
	}
	matched = Sort(matched, sortBy, sortOrder)
	return Paginate(matched, page, size)
}

// Filter AND-combines the present predicates. Absent predicates are skipped,
// not evaluated as identities.
func Filter(orders []*model.Order, f model.OrderFilter) []*model.Order {
	filtered := orders
	if len(f.Status) > 0 {
		filtered = keep(filtered, func(o *model.Order) bool {
			return containsStatus(f.Status, o.Status)
		})
	}
	if len(f.Channel) > 0 {
		filtered = keep(filtered, func(o *model.Order) bool {
			return containsChannel(f.Channel, o.Channel)
		})
	}
	if f.CustomerID != "" {
		filtered = keep(filtered, func(o *model.Order) bool {
			return o.Customer.CustomerID == f.CustomerID
		})
	}
	if f.DateFrom != nil {
		filtered = keep(filtered, func(o *model.Order) bool {
			return !o.CreatedAt.Before(*f.DateFrom)
		})
	}
	if f.DateTo != nil {
		filtered = keep(filtered, func(o *model.Order) bool {
			return !o.CreatedAt.After(*f.DateTo)
		})
	}
	if f.MinAmount != nil {
		filtered = keep(filtered, func(o *model.Order) bool {
			return o.TotalAmount >= *f.MinAmount
		})
	}
	if f.MaxAmount != nil {
		filtered = keep(filtered, func(o *model.Order) bool {
			return o.TotalAmount <= *f.MaxAmount
		})
	}
	return filtered
}

// Search is a case-insensitive substring match against order number, customer
// full name, email, every item product name, and notes. Boolean match only,
// no ranking.
func Search(orders []*model.Order, q string) []*model.Order {
	needle := strings.ToLower(q)
	return keep(orders, func(o *model.Order) bool {
		if contains(o.OrderNumber, needle) ||
			contains(o.Customer.FullName(), needle) ||
			contains(o.Customer.Email, needle) ||
			contains(o.Notes, needle) {
			return true
		}
		for i := range o.Items {
			if contains(o.Items[i].ProductName, needle) {
				return true
			}
		}
		return false
	})
}

// Sort stably orders by one of the fixed keys. An unrecognized key is a
// no-op: the incoming order is preserved.
func Sort(orders []*model.Order, sortBy, sortOrder string) []*model.Order {
	less := lessFor(sortBy)
	if less == nil {
		return orders
	}
	if sortOrder == SortDesc {
		asc := less
		less = func(a, b *model.Order) bool { return asc(b, a) }
	}
	out := make([]*model.Order, len(orders))
	copy(out, orders)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// SortKeys lists the recognized sort_by values, for boundary documentation.
func SortKeys() []string {
	return []string{"created_at", "updated_at", "total_amount", "customer_name", "status", "channel"}
}

// Paginate slices one page out of the matched set. Total reflects the
// pre-pagination count; pages beyond the range yield an empty item slice.
func Paginate(orders []*model.Order, page, size int) model.PaginatedOrders {
	total := len(orders)
	pages := (total + size - 1) / size

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := orders[start:end]
	if items == nil {
		items = []*model.Order{}
	}

	return model.PaginatedOrders{
		Items:   items,
		Total:   total,
		Page:    page,
		Size:    size,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

func lessFor(sortBy string) func(a, b *model.Order) bool {
	switch sortBy {
	case "created_at":
		return func(a, b *model.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updated_at":
		return func(a, b *model.Order) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "total_amount":
		return func(a, b *model.Order) bool { return a.TotalAmount < b.TotalAmount }
	case "customer_name":
		return func(a, b *model.Order) bool { return a.Customer.FullName() < b.Customer.FullName() }
	case "status":
		return func(a, b *model.Order) bool { return a.Status < b.Status }
	case "channel":
		return func(a, b *model.Order) bool { return a.Channel < b.Channel }
	}
	return nil
}

func keep(orders []*model.Order, pred func(*model.Order) bool) []*model.Order {
	out := make([]*model.Order, 0, len(orders))
	for _, o := range orders {
		if pred(o) {
			out = append(out, o)
		}
	}
	return out
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func containsStatus(set []model.OrderStatus, s model.OrderStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsChannel(set []model.SalesChannel, c model.SalesChannel) bool {
	for _, v := range set {
		if v == c {
			return true
		}
	}
	return false
}
