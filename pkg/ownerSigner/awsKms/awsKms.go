package awsKms

import (
	"context"
	cryptoEcdsa "crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"

	internalAws "github.com/Layr-Labs/multisig-account-go/internal/aws"
	"github.com/Layr-Labs/multisig-account-go/pkg/hashing"
	"github.com/Layr-Labs/multisig-account-go/pkg/signatures"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmsTypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// KMSAPI is the subset of the KMS client the signer calls
type KMSAPI interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// AWSKMSSigner signs with a secp256k1 key that never leaves AWS KMS
type AWSKMSSigner struct {
	client    KMSAPI
	keyId     string
	publicKey *cryptoEcdsa.PublicKey
	address   common.Address
	logger    *zap.Logger
}

// NewAWSKMSSignerFromEnvironment resolves AWS credentials the way the
// deployment provides them, optionally pinned to region, and logs the
// principal that will sign.
func NewAWSKMSSignerFromEnvironment(ctx context.Context, region, keyId string, logger *zap.Logger) (*AWSKMSSigner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	awsCfg, err := internalAws.LoadAWSConfig(ctx, region)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}
	if arn, err := internalAws.CallerArn(ctx, awsCfg); err == nil {
		logger.Sugar().Debugw("Using AWS identity", "arn", arn, "region", awsCfg.Region)
	}
	return NewAWSKMSSignerFromConfig(ctx, awsCfg, keyId, logger)
}

// NewAWSKMSSignerFromConfig creates the KMS client from awsCfg
func NewAWSKMSSignerFromConfig(ctx context.Context, awsCfg aws.Config, keyId string, logger *zap.Logger) (*AWSKMSSigner, error) {
	return NewAWSKMSSigner(ctx, kms.NewFromConfig(awsCfg), keyId, logger)
}

// NewAWSKMSSigner loads the public key of keyId to derive the owner address
func NewAWSKMSSigner(ctx context.Context, client KMSAPI, keyId string, logger *zap.Logger) (*AWSKMSSigner, error) {
	if client == nil {
		return nil, fmt.Errorf("kms client cannot be nil")
	}
	if keyId == "" {
		return nil, fmt.Errorf("kms key id cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	out, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyId)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s", keyId)
	}
	pub, err := parseECDSAPublicKey(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for key %s", keyId)
	}

	s := &AWSKMSSigner{
		client:    client,
		keyId:     keyId,
		publicKey: pub,
		address:   crypto.PubkeyToAddress(*pub),
		logger:    logger,
	}
	logger.Sugar().Infow("Loaded KMS owner key", "keyId", keyId, "address", s.address.Hex())
	return s, nil
}

func (s *AWSKMSSigner) Address() common.Address {
	return s.address
}

func (s *AWSKMSSigner) SignDigest(ctx context.Context, digest common.Hash) (signatures.Entry, error) {
	sig, err := s.sign(ctx, digest)
	if err != nil {
		return signatures.Entry{}, err
	}
	sig[64] += 27
	return signatures.Entry{Signer: s.address, Kind: signatures.KindECDSA, Signature: sig}, nil
}

func (s *AWSKMSSigner) EthSignDigest(ctx context.Context, digest common.Hash) (signatures.Entry, error) {
	sig, err := s.sign(ctx, hashing.EthSignedHash(digest))
	if err != nil {
		return signatures.Entry{}, err
	}
	sig[64] += 31
	return signatures.Entry{Signer: s.address, Kind: signatures.KindEthSign, Signature: sig}, nil
}

// sign returns r ‖ s ‖ recoveryId with a low s
func (s *AWSKMSSigner) sign(ctx context.Context, digest common.Hash) ([]byte, error) {
	out, err := s.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.keyId),
		Message:          digest.Bytes(),
		SigningAlgorithm: kmsTypes.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      kmsTypes.MessageTypeDigest,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "kms sign failed for key %s", s.keyId)
	}

	var der asn1EcSig
	if _, err := asn1.Unmarshal(out.Signature, &der); err != nil {
		return nil, errors.Wrap(err, "failed to parse DER signature")
	}
	r := new(big.Int).SetBytes(der.R.Bytes)
	sv := new(big.Int).SetBytes(der.S.Bytes)
	if sv.Cmp(secp256k1HalfN) > 0 {
		sv.Sub(secp256k1N, sv)
	}

	sig := make([]byte, 65)
	r.FillBytes(sig[0:32])
	sv.FillBytes(sig[32:64])

	for recoveryId := byte(0); recoveryId < 2; recoveryId++ {
		sig[64] = recoveryId
		pub, err := crypto.SigToPub(digest.Bytes(), sig)
		if err != nil {
			s.logger.Sugar().Debugw("Ecrecover failed", "recoveryId", recoveryId, "error", err)
			continue
		}
		if pub.X.Cmp(s.publicKey.X) == 0 && pub.Y.Cmp(s.publicKey.Y) == 0 {
			return sig, nil
		}
	}
	return nil, fmt.Errorf("could not determine recovery id for key %s", s.keyId)
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

// parseECDSAPublicKey reads the DER SubjectPublicKeyInfo returned by KMS
func parseECDSAPublicKey(der []byte) (*cryptoEcdsa.PublicKey, error) {
	var info asn1EcPublicKey
	if _, err := asn1.Unmarshal(der, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	return crypto.UnmarshalPubkey(info.PublicKey.Bytes)
}
