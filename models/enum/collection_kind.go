package enum

// CollectionKind 表示本地收藏集合的種類
type CollectionKind string

const (
	CollectionKindCart     CollectionKind = "cart"
	CollectionKindWishlist CollectionKind = "wishlist"
)
