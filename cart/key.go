package cart

import (
	"goflare.io/storefront/event"
	"goflare.io/storefront/models/enum"
)

const wishlistPrefix = "wishlist_"

// Key addresses one persisted collection.
type Key struct {
	Kind enum.CollectionKind
	Name string
}

// CartKey is shared by everyone using the device.
func CartKey() Key {
	return Key{Kind: enum.CollectionKindCart, Name: "cart"}
}

// WishlistKey scopes the wishlist to uid. Callers must only build it for a
// signed-in identity.
func WishlistKey(uid string) Key {
	return Key{Kind: enum.CollectionKindWishlist, Name: wishlistPrefix + uid}
}

func (k Key) String() string {
	return k.Name
}

func (k Key) Topic() event.Topic {
	if k.Kind == enum.CollectionKindWishlist {
		return event.TopicWishlistUpdated
	}
	return event.TopicCartUpdated
}
