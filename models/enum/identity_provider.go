package enum

type IdentityProvider string

const (
	IdentityProviderPassword  IdentityProvider = "password"
	IdentityProviderFederated IdentityProvider = "federated"
)
