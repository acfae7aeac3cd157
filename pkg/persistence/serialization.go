package persistence

import (
	"context"
	"encoding/json"
	"fmt"
)

// KeyDeploymentRecord is the metadata key holding the DeploymentRecord
var KeyDeploymentRecord = []byte("metadata:deployment")

// MarshalDeploymentRecord serializes a DeploymentRecord to JSON bytes.
func MarshalDeploymentRecord(rec *DeploymentRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("cannot marshal nil DeploymentRecord")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal DeploymentRecord to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalDeploymentRecord deserializes a DeploymentRecord from JSON bytes.
func UnmarshalDeploymentRecord(data []byte) (*DeploymentRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var rec DeploymentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to DeploymentRecord: %w", err)
	}

	return &rec, nil
}

// SaveDeploymentRecord stores rec in its own transaction.
func SaveDeploymentRecord(ctx context.Context, store IStateStore, rec *DeploymentRecord) error {
	data, err := MarshalDeploymentRecord(rec)
	if err != nil {
		return err
	}

	txn, err := store.NewTransaction(ctx)
	if err != nil {
		return fmt.Errorf("failed to open transaction: %w", err)
	}
	defer txn.Discard()

	if err := txn.Set(KeyDeploymentRecord, data); err != nil {
		return fmt.Errorf("failed to write DeploymentRecord: %w", err)
	}
	return txn.Commit()
}

// LoadDeploymentRecord returns the stored record, or nil on first run.
func LoadDeploymentRecord(ctx context.Context, store IStateStore) (*DeploymentRecord, error) {
	txn, err := store.NewTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction: %w", err)
	}
	defer txn.Discard()

	data, err := txn.Get(KeyDeploymentRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to read DeploymentRecord: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return UnmarshalDeploymentRecord(data)
}
