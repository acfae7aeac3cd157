package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Layr-Labs/multisig-account-go/pkg/account"
	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/simulation"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash: %q", s)
	}
	return common.BytesToHash(b), nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s: %q", field, s)
	}
	return common.HexToAddress(s), nil
}

func hexAddresses(addrs []common.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}

// internalError logs err against the request id and hides it from the client
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Sugar().Errorw(msg, "requestId", RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func (s *Server) handleGetOwners(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	owners, err := s.caller.GetOwners(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to read owners", err)
		return
	}
	threshold, err := s.caller.GetThreshold(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to read threshold", err)
		return
	}
	writeJSON(w, http.StatusOK, types.OwnersResponse{
		Account:   s.caller.Address().Hex(),
		Owners:    hexAddresses(owners),
		Threshold: threshold,
	})
}

func (s *Server) handleGetModules(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	modules, err := s.caller.GetModules(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to read modules", err)
		return
	}
	writeJSON(w, http.StatusOK, types.ModulesResponse{
		Account: s.caller.Address().Hex(),
		Modules: hexAddresses(modules),
	})
}

func (s *Server) handleGetNonce(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	nonce, err := s.caller.Nonce(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to read nonce", err)
		return
	}
	writeJSON(w, http.StatusOK, types.NonceResponse{
		Account: s.caller.Address().Hex(),
		Nonce:   nonce.Uint64(),
	})
}

func (s *Server) handleMessageHash(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req types.MessageHashRequest
	if !decode(w, r, &req) {
		return
	}
	hash, err := s.caller.GetMessageHash(r.Context(), req.Message)
	if err != nil {
		s.internalError(w, r, "Failed to hash message", err)
		return
	}
	writeJSON(w, http.StatusOK, types.HashResponse{Hash: hash.Hex()})
}

func (s *Server) handleTransactionHash(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req types.TransactionRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := req.ToTransaction()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if tx.Nonce == nil {
		if tx.Nonce, err = s.caller.Nonce(r.Context()); err != nil {
			s.internalError(w, r, "Failed to read nonce", err)
			return
		}
	}
	hash, err := s.caller.GetTransactionHash(r.Context(), tx)
	if err != nil {
		s.internalError(w, r, "Failed to hash transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, types.HashResponse{Hash: hash.Hex()})
}

func (s *Server) handleValidateSignature(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req types.ValidateSignatureRequest
	if !decode(w, r, &req) {
		return
	}
	if (req.Message == nil) == (req.Hash == "") {
		http.Error(w, "exactly one of message or hash is required", http.StatusBadRequest)
		return
	}

	var (
		valid  bool
		reason string
		magic  [4]byte
		err    error
	)
	if req.Message != nil {
		magic = types.LegacyEIP1271MagicValue
		valid, reason, err = s.caller.IsValidSignature(r.Context(), req.Message, req.Signature)
	} else {
		hash, perr := parseHash(req.Hash)
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		magic = types.EIP1271MagicValue
		valid, reason, err = s.caller.IsValidSignatureHash(r.Context(), hash, req.Signature)
	}
	if err != nil {
		s.internalError(w, r, "Failed to validate signature", err)
		return
	}

	resp := types.ValidateSignatureResponse{Valid: valid, Reason: reason}
	if valid {
		resp.MagicValue = hexutil.Encode(magic[:])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req types.SimulateRequest
	if !decode(w, r, &req) {
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var from common.Address
	if req.From != "" {
		if from, err = parseAddress("from", req.From); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	value, err := types.ParseAmount("value", req.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.caller.Simulate(r.Context(), from, to, value, req.Data, types.CallKind(req.Operation))
	switch {
	case errors.Is(err, simulation.ErrNotDelegated):
		s.internalError(w, r, "Simulation accessor rejected the call", err)
		return
	case execution.IsRevert(err):
		http.Error(w, execution.RevertReason(err), http.StatusUnprocessableEntity)
		return
	case err != nil:
		s.internalError(w, r, "Failed to simulate", err)
		return
	}
	writeJSON(w, http.StatusOK, types.SimulateResponse{
		Success:    result.Success,
		GasUsed:    result.GasUsed,
		ReturnData: result.ReturnData,
	})
}

func (s *Server) handleExecuteTransaction(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req types.TransactionRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := req.ToTransaction()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var executor common.Address
	if req.Executor != "" {
		if executor, err = parseAddress("executor", req.Executor); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	receipt, err := s.caller.ExecTransaction(r.Context(), executor, tx, req.Signatures)
	if err != nil {
		s.internalError(w, r, "Failed to execute transaction", err)
		return
	}
	if !receipt.Success {
		s.logger.Sugar().Infow("Transaction rejected",
			"requestId", RequestIDFromContext(r.Context()),
			"account", s.caller.Address().Hex(),
			"reason", execution.RevertReason(receipt.Err),
		)
		writeJSON(w, http.StatusUnprocessableEntity, types.ExecuteResponse{
			GasUsed: receipt.GasUsed,
			Reason:  execution.RevertReason(receipt.Err),
		})
		return
	}
	success, err := account.ExecSuccess(receipt)
	if err != nil {
		s.internalError(w, r, "Failed to decode execution result", err)
		return
	}
	writeJSON(w, http.StatusOK, types.ExecuteResponse{Success: success, GasUsed: receipt.GasUsed})
}

// handleApproveHash records an approval as if the owner had sent it. Only
// available in dev mode, since the server cannot authenticate the owner.
func (s *Server) handleApproveHash(w http.ResponseWriter, r *http.Request) {
	if !s.devMode {
		http.NotFound(w, r)
		return
	}
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req types.ApproveHashRequest
	if !decode(w, r, &req) {
		return
	}
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hash, err := parseHash(req.Hash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := s.caller.ApproveHash(r.Context(), owner, hash)
	if err != nil {
		s.internalError(w, r, "Failed to approve hash", err)
		return
	}
	if !receipt.Success {
		http.Error(w, execution.RevertReason(receipt.Err), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, types.HashResponse{Hash: hash.Hex()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	resp := types.HealthResponse{
		Status:  "ok",
		Account: s.caller.Address().Hex(),
		ChainID: s.caller.Host().ChainID().Uint64(),
	}
	if s.store != nil {
		if err := s.store.HealthCheck(); err != nil {
			s.logger.Sugar().Warnw("State store unhealthy", "error", err)
			resp.Status = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
