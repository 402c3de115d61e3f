package catalog

import "goflare.io/storefront/models"

// SampleProducts is the demo catalog an empty store can be seeded with.
func SampleProducts() []*models.Product {
	return []*models.Product{
		{
			Name:        "Wireless Bluetooth Headphones",
			Description: "High-quality wireless headphones with noise cancellation and 30-hour battery life.",
			Price:       89.99,
			Category:    "Electronics",
			Stock:       50,
			ImageURL:    "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500&h=500&fit=crop",
			Featured:    true,
		},
		{
			Name:        "Smart Fitness Watch",
			Description: "Advanced fitness tracking with heart rate monitor and GPS capabilities.",
			Price:       199.99,
			Category:    "Electronics",
			Stock:       30,
			ImageURL:    "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=500&h=500&fit=crop",
			Featured:    true,
		},
		{
			Name:        "Organic Cotton T-Shirt",
			Description: "Comfortable and sustainable cotton t-shirt available in multiple colors.",
			Price:       24.99,
			Category:    "Clothing",
			Stock:       100,
			ImageURL:    "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=500&h=500&fit=crop",
		},
		{
			Name:        "Professional Camera Lens",
			Description: "High-quality 50mm f/1.8 lens perfect for portrait photography.",
			Price:       299.99,
			Category:    "Electronics",
			Stock:       15,
			ImageURL:    "https://images.unsplash.com/photo-1516035069371-29a1b244cc32?w=500&h=500&fit=crop",
			Featured:    true,
		},
		{
			Name:        "Yoga Mat Premium",
			Description: "Non-slip yoga mat made from eco-friendly materials.",
			Price:       39.99,
			Category:    "Sports",
			Stock:       75,
			ImageURL:    "https://images.unsplash.com/photo-1544367567-0f2fcb009e0b?w=500&h=500&fit=crop",
		},
		{
			Name:        "Wireless Charging Pad",
			Description: "Fast wireless charging pad compatible with all Qi-enabled devices.",
			Price:       49.99,
			Category:    "Electronics",
			Stock:       40,
			ImageURL:    "https://images.unsplash.com/photo-1586953208448-b95a79798f07?w=500&h=500&fit=crop",
		},
		{
			Name:        "Designer Sunglasses",
			Description: "Stylish sunglasses with UV protection and polarized lenses.",
			Price:       129.99,
			Category:    "Clothing",
			Stock:       25,
			ImageURL:    "https://images.unsplash.com/photo-1572635196237-14b3f281503f?w=500&h=500&fit=crop",
			Featured:    true,
		},
		{
			Name:        "Smart Home Speaker",
			Description: "Voice-controlled smart speaker with premium sound quality.",
			Price:       149.99,
			Category:    "Electronics",
			Stock:       35,
			ImageURL:    "https://images.unsplash.com/photo-1545454675-3531b543be5d?w=500&h=500&fit=crop",
			Featured:    true,
		},
	}
}
