package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the account server
const (
	EnvAccountPort            = "ACCOUNT_PORT"
	EnvAccountChainID         = "ACCOUNT_CHAIN_ID"
	EnvAccountAddress         = "ACCOUNT_ADDRESS"
	EnvAccountAccessorAddress = "ACCOUNT_ACCESSOR_ADDRESS"
	EnvAccountDeployer        = "ACCOUNT_DEPLOYER"
	EnvAccountOwners          = "ACCOUNT_OWNERS"
	EnvAccountThreshold       = "ACCOUNT_THRESHOLD"
	EnvAccountGasLimit        = "ACCOUNT_GAS_LIMIT"
	EnvAccountRateLimit       = "ACCOUNT_RATE_LIMIT"
	EnvAccountRateBurst       = "ACCOUNT_RATE_BURST"
	EnvAccountDevMode         = "ACCOUNT_DEV_MODE"
	EnvAccountDebug           = "ACCOUNT_DEBUG"
	EnvPersistenceType        = "ACCOUNT_PERSISTENCE_TYPE"
	EnvPersistenceDataPath    = "ACCOUNT_PERSISTENCE_DATA_PATH"
	EnvRedisAddress           = "ACCOUNT_REDIS_ADDRESS"
	EnvRedisPassword          = "ACCOUNT_REDIS_PASSWORD"
	EnvRedisDB                = "ACCOUNT_REDIS_DB"
	EnvRedisKeyPrefix         = "ACCOUNT_REDIS_KEY_PREFIX"
	EnvAccountRPCURL          = "ACCOUNT_RPC_URL"
	EnvAccountAWSRegion       = "ACCOUNT_AWS_REGION"
	EnvAccountKMSKeyID        = "ACCOUNT_KMS_KEY_ID"
)

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_EthereumAnvil   ChainId = 31337
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_EthereumSepolia ChainName = "sepolia"
	ChainName_EthereumAnvil   ChainName = "devnet"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_EthereumSepolia: ChainName_EthereumSepolia,
	ChainId_EthereumAnvil:   ChainName_EthereumAnvil,
}

var ChainNameToId = map[ChainName]ChainId{
	ChainName_EthereumMainnet: ChainId_EthereumMainnet,
	ChainName_EthereumSepolia: ChainId_EthereumSepolia,
	ChainName_EthereumAnvil:   ChainId_EthereumAnvil,
}

// GetSupportedChainIDsString returns supported chain IDs for CLI help
func GetSupportedChainIDsString() string {
	return fmt.Sprintf("%d (mainnet), %d (sepolia), %d (anvil)",
		ChainId_EthereumMainnet, ChainId_EthereumSepolia, ChainId_EthereumAnvil)
}

// PersistenceType selects the state store backend
type PersistenceType string

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

// RedisSettings configures the redis backend
type RedisSettings struct {
	Address   string `json:"address"`
	Password  string `json:"-"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"`
}

// PersistenceConfig selects and configures the state store
type PersistenceConfig struct {
	Type     PersistenceType `json:"type"`
	DataPath string          `json:"data_path,omitempty"`
	Redis    RedisSettings   `json:"redis"`
}

// Validate checks the settings of the selected backend
func (p *PersistenceConfig) Validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch p.Type {
	case PersistenceTypeMemory:
	case PersistenceTypeBadger:
		if p.DataPath == "" {
			allErrors = append(allErrors, field.Required(path.Child("dataPath"), "badger persistence needs a data path"))
		}
	case PersistenceTypeRedis:
		if p.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(path.Child("redis", "address"), "redis persistence needs an address"))
		}
		if p.Redis.DB < 0 || p.Redis.DB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redis", "db"), p.Redis.DB, "must be between 0 and 15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), p.Type,
			[]string{string(PersistenceTypeMemory), string(PersistenceTypeBadger), string(PersistenceTypeRedis)}))
	}
	return allErrors
}

// AccountServerConfig is the complete configuration of an account server
type AccountServerConfig struct {
	Port int `json:"port"`

	ChainID   ChainId   `json:"chain_id"`
	ChainName ChainName `json:"chain_name"`

	// Account and simulation helper addresses on the host
	AccountAddress  string `json:"account_address"`
	AccessorAddress string `json:"accessor_address"`

	// Setup parameters, applied on first start only
	Deployer  string   `json:"deployer"`
	Owners    []string `json:"owners"`
	Threshold uint64   `json:"threshold"`

	GasLimit uint64 `json:"gas_limit"`

	// Requests per second and burst accepted by the HTTP server; 0 disables limiting
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	// DevMode enables endpoints that act as an owner, such as hash approval
	DevMode bool `json:"dev_mode"`
	Debug   bool `json:"debug"`

	Persistence PersistenceConfig `json:"persistence"`
}

// Validate checks every field and reports all problems at once
func (c *AccountServerConfig) Validate() error {
	var allErrors field.ErrorList

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "must be between 1-65535"))
	}

	chainName, exists := ChainIdToName[c.ChainID]
	if !exists {
		allErrors = append(allErrors, field.Invalid(field.NewPath("chainId"), c.ChainID, "supported: "+GetSupportedChainIDsString()))
	} else {
		c.ChainName = chainName
	}

	allErrors = append(allErrors, validateAddress(field.NewPath("accountAddress"), c.AccountAddress, true)...)
	allErrors = append(allErrors, validateAddress(field.NewPath("accessorAddress"), c.AccessorAddress, false)...)
	allErrors = append(allErrors, validateAddress(field.NewPath("deployer"), c.Deployer, false)...)
	if c.AccessorAddress != "" && strings.EqualFold(c.AccessorAddress, c.AccountAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("accessorAddress"), c.AccessorAddress, "must differ from the account address"))
	}

	ownersPath := field.NewPath("owners")
	if len(c.Owners) == 0 {
		allErrors = append(allErrors, field.Required(ownersPath, "at least one owner is required"))
	}
	seen := make(map[common.Address]struct{}, len(c.Owners))
	for i, o := range c.Owners {
		if !common.IsHexAddress(o) {
			allErrors = append(allErrors, field.Invalid(ownersPath.Index(i), o, "not a hex address"))
			continue
		}
		addr := common.HexToAddress(o)
		if _, dup := seen[addr]; dup {
			allErrors = append(allErrors, field.Duplicate(ownersPath.Index(i), o))
		}
		seen[addr] = struct{}{}
	}

	if c.Threshold == 0 || c.Threshold > uint64(len(c.Owners)) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("threshold"), c.Threshold,
			fmt.Sprintf("must be between 1 and the owner count %d", len(c.Owners))))
	}
	if c.RateLimit < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateLimit"), c.RateLimit, "cannot be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateBurst"), c.RateBurst, "must be positive when rate limiting is enabled"))
	}

	allErrors = append(allErrors, c.Persistence.Validate(field.NewPath("persistence"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// OwnerAddresses converts the validated owner list
func (c *AccountServerConfig) OwnerAddresses() []common.Address {
	out := make([]common.Address, len(c.Owners))
	for i, o := range c.Owners {
		out[i] = common.HexToAddress(o)
	}
	return out
}

// SplitList parses a comma separated flag value
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateAddress(path *field.Path, value string, required bool) field.ErrorList {
	if value == "" {
		if required {
			return field.ErrorList{field.Required(path, "address is required")}
		}
		return nil
	}
	if !common.IsHexAddress(value) {
		return field.ErrorList{field.Invalid(path, value, "not a hex address")}
	}
	if common.HexToAddress(value) == (common.Address{}) {
		return field.ErrorList{field.Invalid(path, value, "cannot be the zero address")}
	}
	return nil
}
