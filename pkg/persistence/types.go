package persistence

// DeploymentRecord remembers where the account and its simulation helper live
// so a restarted service reuses the same addresses instead of deploying again.
type DeploymentRecord struct {
	// AccountAddress is the hex address of the deployed account
	AccountAddress string `json:"accountAddress"`

	// AccessorAddress is the hex address of the simulation helper
	AccessorAddress string `json:"accessorAddress"`

	// ChainID the account was deployed for
	ChainID uint64 `json:"chainId"`

	// Owners at deployment time, hex encoded
	Owners []string `json:"owners"`

	// Threshold at deployment time
	Threshold uint64 `json:"threshold"`

	// DeployedAt is the Unix timestamp of the deployment
	DeployedAt int64 `json:"deployedAt"`
}
