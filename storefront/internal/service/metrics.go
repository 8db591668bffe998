package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_carts_created_total",
		Help: "Number of cart rows created by the resolver.",
	})
	draftSalesReadopted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_draft_sales_readopted_total",
		Help: "Number of abandoned draft orders re-attached to a cart.",
	})
	linesMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_sale_lines_merged_total",
		Help: "Number of add-or-update operations against sale lines.",
	})
	cartsTransferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_guest_carts_transferred_total",
		Help: "Number of guest carts merged into a registered cart at login.",
	})
	cartsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_carts_cleared_total",
		Help: "Number of carts explicitly cleared.",
	})
)
