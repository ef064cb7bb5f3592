package shopify

type Topic string

const (
	TopicOrdersCreate         Topic = "orders/create"
	TopicOrdersFulfilled      Topic = "orders/fulfilled"
	TopicProductsCreate       Topic = "products/create"
	TopicCustomersCreate      Topic = "customers/create"
	TopicAppUninstalled       Topic = "app/uninstalled"
	TopicCustomersDataRequest Topic = "customers/data_request"
	TopicCustomersRedact      Topic = "customers/redact"
	TopicShopRedact           Topic = "shop/redact"
)

// SubscribedTopics are registered on install. The compliance topics are
// configured in the partner dashboard instead.
var SubscribedTopics = []Topic{
	TopicOrdersCreate,
	TopicOrdersFulfilled,
	TopicProductsCreate,
	TopicCustomersCreate,
	TopicAppUninstalled,
}

// IsCompliance reports whether the topic is one of the mandatory privacy topics.
func (t Topic) IsCompliance() bool {
	switch t {
	case TopicCustomersDataRequest, TopicCustomersRedact, TopicShopRedact:
		return true
	}
	return false
}
