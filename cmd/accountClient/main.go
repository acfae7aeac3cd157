package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"

	"github.com/Layr-Labs/multisig-account-go/pkg/accountclient"
	"github.com/Layr-Labs/multisig-account-go/pkg/logger"
	"github.com/Layr-Labs/multisig-account-go/pkg/ownerSigner"
	"github.com/Layr-Labs/multisig-account-go/pkg/ownerSigner/awsKms"
	"github.com/Layr-Labs/multisig-account-go/pkg/ownerSigner/local"
	"github.com/Layr-Labs/multisig-account-go/pkg/ownerset"
	"github.com/Layr-Labs/multisig-account-go/pkg/remote"
	"github.com/Layr-Labs/multisig-account-go/pkg/signatures"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	txFlags := []cli.Flag{
		&cli.StringFlag{Name: "to", Usage: "Target address", Required: true},
		&cli.StringFlag{Name: "value", Usage: "Value in wei (decimal or 0x hex)"},
		&cli.StringFlag{Name: "data", Usage: "Call data (hex)"},
		&cli.StringFlag{Name: "operation", Usage: "call or delegatecall", Value: "call"},
	}

	app := &cli.App{
		Name:  "account-client",
		Usage: "Client for multi-owner account servers",
		Description: `Builds digests, collects owner signatures and submits transactions.

Owners sign with a local private key or an AWS KMS secp256k1 key. Signatures
from several owners are combined with the pack command before submission.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server-url",
				Usage: "Account server URL",
				Value: "http://localhost:8000",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "owners",
				Usage:  "Show the owners and threshold",
				Action: ownersCommand,
			},
			{
				Name:  "hash-message",
				Usage: "Compute the digest owners sign for a message",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Usage: "Message (hex)", Required: true},
				},
				Action: hashMessageCommand,
			},
			{
				Name:  "hash-tx",
				Usage: "Compute the digest owners sign for a transaction",
				Flags: append([]cli.Flag{
					&cli.Int64Flag{Name: "nonce", Usage: "Nonce to hash with (default: current)", Value: -1},
				}, txFlags...),
				Action: hashTxCommand,
			},
			{
				Name:  "sign",
				Usage: "Sign a digest as one owner",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "digest", Usage: "32-byte digest (hex)", Required: true},
					&cli.StringFlag{Name: "private-key", Usage: "Owner private key (hex)", EnvVars: []string{"ACCOUNT_OWNER_PRIVATE_KEY"}},
					&cli.StringFlag{Name: "kms-key-id", Usage: "AWS KMS key id of the owner", EnvVars: []string{"ACCOUNT_KMS_KEY_ID"}},
					&cli.StringFlag{Name: "aws-region", Usage: "AWS region override", EnvVars: []string{"ACCOUNT_AWS_REGION"}},
					&cli.BoolFlag{Name: "eth-sign", Usage: "Sign the personal-sign prefixed digest"},
				},
				Action: signCommand,
			},
			{
				Name:  "pack",
				Usage: "Combine owner signatures into one blob",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "sig", Usage: "signer:signature for ECDSA or eth_sign signatures"},
					&cli.StringSliceFlag{Name: "approved", Usage: "Owner whose approval is on record"},
					&cli.StringSliceFlag{Name: "contract", Usage: "signer:signature for contract owners"},
				},
				Action: packCommand,
			},
			{
				Name:  "validate",
				Usage: "Check a signature blob through the account's EIP-1271 interface",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Usage: "Message (hex)"},
					&cli.StringFlag{Name: "hash", Usage: "32-byte hash (hex)"},
					&cli.StringFlag{Name: "signatures", Usage: "Packed signatures (hex)", Required: true},
				},
				Action: validateCommand,
			},
			{
				Name:   "simulate",
				Usage:  "Simulate a call from the account without changing state",
				Flags:  txFlags,
				Action: simulateCommand,
			},
			{
				Name:  "execute",
				Usage: "Execute a transaction with packed owner signatures",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "signatures", Usage: "Packed signatures (hex)", Required: true},
					&cli.StringFlag{Name: "executor", Usage: "Submitting address"},
				}, txFlags...),
				Action: executeCommand,
			},
			{
				Name:  "verify-onchain",
				Usage: "Verify a signature blob against an account deployed on an EVM chain",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "rpc-url", Usage: "Ethereum RPC URL", Value: "http://localhost:8545", EnvVars: []string{"ACCOUNT_RPC_URL"}},
					&cli.StringFlag{Name: "account", Usage: "Account contract address", Required: true},
					&cli.StringFlag{Name: "digest", Usage: "Signed digest (hex)", Required: true},
					&cli.StringFlag{Name: "signatures", Usage: "Packed signatures (hex)", Required: true},
				},
				Action: verifyOnchainCommand,
			},
			{
				Name:  "verify-offline",
				Usage: "Verify a signature blob against an owner set given on the command line",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "owner", Usage: "Owner address (repeatable)", Required: true},
					&cli.Uint64Flag{Name: "threshold", Usage: "Required signature count", Required: true},
					&cli.StringSliceFlag{Name: "approved", Usage: "Owner that approved the digest on record"},
					&cli.StringFlag{Name: "digest", Usage: "Signed digest (hex)", Required: true},
					&cli.StringFlag{Name: "signatures", Usage: "Packed signatures (hex)", Required: true},
				},
				Action: verifyOfflineCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	return logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
}

// createClient creates an account client from CLI context
func createClient(c *cli.Context) (*accountclient.Client, error) {
	l, err := newLogger(c)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return accountclient.NewClient(&accountclient.ClientConfig{
		BaseURL: c.String("server-url"),
		Logger:  l,
	})
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func decodeHex(name, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return b, nil
}

func decodeHash(name, s string) (common.Hash, error) {
	b, err := decodeHex(name, s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%s must be 32 bytes, got %d", name, len(b))
	}
	return common.BytesToHash(b), nil
}

func decodeAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s: %q", name, s)
	}
	return common.HexToAddress(s), nil
}

func parseTransaction(c *cli.Context) (*types.AccountTransaction, error) {
	to, err := decodeAddress("to", c.String("to"))
	if err != nil {
		return nil, err
	}
	value, err := types.ParseAmount("value", c.String("value"))
	if err != nil {
		return nil, err
	}
	data, err := decodeHex("data", c.String("data"))
	if err != nil {
		return nil, err
	}
	op, err := types.ParseCallKind(c.String("operation"))
	if err != nil {
		return nil, err
	}
	return &types.AccountTransaction{To: to, Value: value, Data: data, Operation: op}, nil
}

func ownersCommand(c *cli.Context) error {
	client, err := createClient(c)
	if err != nil {
		return err
	}
	owners, err := client.GetOwners(c.Context)
	if err != nil {
		return fmt.Errorf("failed to get owners: %w", err)
	}
	return printJSON(owners)
}

func hashMessageCommand(c *cli.Context) error {
	message, err := decodeHex("message", c.String("message"))
	if err != nil {
		return err
	}
	client, err := createClient(c)
	if err != nil {
		return err
	}
	hash, err := client.MessageHash(c.Context, message)
	if err != nil {
		return fmt.Errorf("failed to hash message: %w", err)
	}
	fmt.Println(hash.Hex())
	return nil
}

func hashTxCommand(c *cli.Context) error {
	tx, err := parseTransaction(c)
	if err != nil {
		return err
	}
	if n := c.Int64("nonce"); n >= 0 {
		tx.Nonce = new(big.Int).SetUint64(uint64(n))
	}
	client, err := createClient(c)
	if err != nil {
		return err
	}
	hash, err := client.TransactionHash(c.Context, tx)
	if err != nil {
		return fmt.Errorf("failed to hash transaction: %w", err)
	}
	fmt.Println(hash.Hex())
	return nil
}

// ownerSignerFromFlags picks a local key or an AWS KMS key
func ownerSignerFromFlags(c *cli.Context, l *zap.Logger) (ownerSigner.IOwnerSigner, error) {
	privateKey, keyId := c.String("private-key"), c.String("kms-key-id")
	switch {
	case privateKey != "" && keyId != "":
		return nil, fmt.Errorf("use either --private-key or --kms-key-id, not both")
	case privateKey != "":
		return local.NewLocalSignerFromHex(privateKey)
	case keyId != "":
		return awsKms.NewAWSKMSSignerFromEnvironment(c.Context, c.String("aws-region"), keyId, l)
	default:
		return nil, fmt.Errorf("--private-key or --kms-key-id is required")
	}
}

func signCommand(c *cli.Context) error {
	digest, err := decodeHash("digest", c.String("digest"))
	if err != nil {
		return err
	}
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	signer, err := ownerSignerFromFlags(c, l)
	if err != nil {
		return err
	}

	var entry signatures.Entry
	if c.Bool("eth-sign") {
		entry, err = signer.EthSignDigest(c.Context, digest)
	} else {
		entry, err = signer.SignDigest(c.Context, digest)
	}
	if err != nil {
		return fmt.Errorf("failed to sign digest: %w", err)
	}
	fmt.Printf("%s:%s\n", entry.Signer.Hex(), hexutil.Encode(entry.Signature))
	return nil
}

func splitSignerPair(s string) (common.Address, []byte, error) {
	signer, sig, ok := strings.Cut(s, ":")
	if !ok {
		return common.Address{}, nil, fmt.Errorf("expected signer:signature, got %q", s)
	}
	addr, err := decodeAddress("signer", signer)
	if err != nil {
		return common.Address{}, nil, err
	}
	raw, err := decodeHex("signature", sig)
	if err != nil {
		return common.Address{}, nil, err
	}
	return addr, raw, nil
}

func packCommand(c *cli.Context) error {
	var entries []signatures.Entry
	for _, s := range c.StringSlice("sig") {
		signer, sig, err := splitSignerPair(s)
		if err != nil {
			return err
		}
		e, err := signatures.NewECDSAEntry(signer, sig)
		if err != nil {
			return fmt.Errorf("signature of %s: %w", signer.Hex(), err)
		}
		entries = append(entries, e)
	}
	for _, s := range c.StringSlice("approved") {
		owner, err := decodeAddress("approved", s)
		if err != nil {
			return err
		}
		entries = append(entries, signatures.ApprovedHashEntry(owner))
	}
	for _, s := range c.StringSlice("contract") {
		signer, sig, err := splitSignerPair(s)
		if err != nil {
			return err
		}
		entries = append(entries, signatures.ContractEntry(signer, sig))
	}
	if len(entries) == 0 {
		return fmt.Errorf("at least one signature is required")
	}

	blob, err := signatures.Pack(entries)
	if err != nil {
		return err
	}
	fmt.Println(hexutil.Encode(blob))
	return nil
}

func validateCommand(c *cli.Context) error {
	sigs, err := decodeHex("signatures", c.String("signatures"))
	if err != nil {
		return err
	}
	client, err := createClient(c)
	if err != nil {
		return err
	}

	var resp *types.ValidateSignatureResponse
	switch {
	case c.IsSet("message") && c.IsSet("hash"):
		return fmt.Errorf("use either --message or --hash, not both")
	case c.IsSet("hash"):
		hash, herr := decodeHash("hash", c.String("hash"))
		if herr != nil {
			return herr
		}
		resp, err = client.ValidateHashSignature(c.Context, hash, sigs)
	case c.IsSet("message"):
		message, merr := decodeHex("message", c.String("message"))
		if merr != nil {
			return merr
		}
		resp, err = client.ValidateMessageSignature(c.Context, message, sigs)
	default:
		return fmt.Errorf("--message or --hash is required")
	}
	if err != nil {
		return fmt.Errorf("failed to validate signature: %w", err)
	}
	return printJSON(resp)
}

func simulateCommand(c *cli.Context) error {
	tx, err := parseTransaction(c)
	if err != nil {
		return err
	}
	client, err := createClient(c)
	if err != nil {
		return err
	}
	result, err := client.Simulate(c.Context, &types.SimulateRequest{
		To:        tx.To.Hex(),
		Value:     tx.Value.String(),
		Data:      tx.Data,
		Operation: uint8(tx.Operation),
	})
	if err != nil {
		return fmt.Errorf("failed to simulate: %w", err)
	}
	return printJSON(types.SimulateResponse{
		Success:    result.Success,
		GasUsed:    result.GasUsed,
		ReturnData: result.ReturnData,
	})
}

func executeCommand(c *cli.Context) error {
	tx, err := parseTransaction(c)
	if err != nil {
		return err
	}
	sigs, err := decodeHex("signatures", c.String("signatures"))
	if err != nil {
		return err
	}
	var executor common.Address
	if s := c.String("executor"); s != "" {
		if executor, err = decodeAddress("executor", s); err != nil {
			return err
		}
	}
	client, err := createClient(c)
	if err != nil {
		return err
	}
	resp, err := client.Execute(c.Context, executor, tx, sigs)
	if err != nil {
		return fmt.Errorf("failed to execute: %w", err)
	}
	return printJSON(resp)
}

func verifyOnchainCommand(c *cli.Context) error {
	account, err := decodeAddress("account", c.String("account"))
	if err != nil {
		return err
	}
	digest, err := decodeHash("digest", c.String("digest"))
	if err != nil {
		return err
	}
	sigs, err := decodeHex("signatures", c.String("signatures"))
	if err != nil {
		return err
	}
	l, err := newLogger(c)
	if err != nil {
		return err
	}

	reader, ethClient, err := remote.Dial(c.Context, c.String("rpc-url"), account, l)
	if err != nil {
		return err
	}
	defer ethClient.Close()

	validator := signatures.NewValidator(reader, reader, reader, l)
	if err := validator.CheckSignatures(c.Context, &signatures.Request{
		DataHash:   digest,
		Data:       digest.Bytes(),
		Signatures: sigs,
	}); err != nil {
		fmt.Printf("invalid: %v\n", err)
		return cli.Exit("", 1)
	}
	fmt.Println("valid")
	return nil
}

func verifyOfflineCommand(c *cli.Context) error {
	digest, err := decodeHash("digest", c.String("digest"))
	if err != nil {
		return err
	}
	sigs, err := decodeHex("signatures", c.String("signatures"))
	if err != nil {
		return err
	}
	l, err := newLogger(c)
	if err != nil {
		return err
	}

	owners := make([]common.Address, 0, len(c.StringSlice("owner")))
	for _, s := range c.StringSlice("owner") {
		owner, err := decodeAddress("owner", s)
		if err != nil {
			return err
		}
		owners = append(owners, owner)
	}
	set, err := ownerset.New(owners, c.Uint64("threshold"))
	if err != nil {
		return err
	}
	for _, s := range c.StringSlice("approved") {
		owner, err := decodeAddress("approved", s)
		if err != nil {
			return err
		}
		if err := set.Approve(owner, digest); err != nil {
			return err
		}
	}

	if err := set.Verify(c.Context, digest, sigs, l); err != nil {
		fmt.Printf("invalid: %v\n", err)
		return cli.Exit("", 1)
	}
	fmt.Println("valid")
	return nil
}
