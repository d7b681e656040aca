package controller

import (
	"net/http"
	"strings"
	"time"

	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/identity"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// allowedClockSkew tolerates registration timestamps slightly ahead of the
// validator's clock.
const allowedClockSkew = time.Minute

type walletMappingRequest struct {
	Type string `json:"type"`
	Data struct {
		ColdkeyIdentity string `json:"coldkeyIdentity"`
		LedgerAddress   string `json:"ledgerAddress"`
		Signature       string `json:"signature"`
		Message         string `json:"message"`
		Timestamp       int64  `json:"timestamp"`
		// Verified is client-asserted and deliberately ignored: the server
		// re-verifies the signature itself.
		Verified bool `json:"verified"`
	} `json:"data"`
}

// HandleWalletMappingRegister links a coldkey to the EVM address it bets
// from. The message must reproduce the canonical binding string exactly and
// the signature must verify against the coldkey, regardless of what the
// client claims in the verified flag.
// Endpoint: POST /api/wallet-mapping
func (c *Controller) HandleWalletMappingRegister(w http.ResponseWriter, r *http.Request) {
	var req walletMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	data := req.Data
	if data.ColdkeyIdentity == "" || data.LedgerAddress == "" || data.Signature == "" || data.Message == "" || data.Timestamp == 0 {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	expected := identity.BindingMessage(data.ColdkeyIdentity, data.LedgerAddress, data.Timestamp)
	if data.Message != expected {
		writeError(w, http.StatusBadRequest, "message does not match the canonical binding format")
		return
	}

	now := time.Now()
	ts := time.UnixMilli(data.Timestamp)
	maxAge := utils.EnvDuration("REGISTRATION_MAX_AGE", 5*time.Minute)
	if ts.Before(now.Add(-maxAge)) || ts.After(now.Add(allowedClockSkew)) {
		writeError(w, http.StatusBadRequest, identity.ErrStaleTimestamp.Error())
		return
	}

	ctx := r.Context()

	// Replay fence: the registration must version past the latest stored row,
	// tombstones included. Fencing only against live mappings would accept a
	// registration older than a deletion tombstone, and the insert would then
	// lose the merge and never take effect.
	existing, err := c.App.DB.GetMappingRow(ctx, data.ColdkeyIdentity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if existing != nil && data.Timestamp <= existing.Timestamp {
		writeError(w, http.StatusBadRequest, identity.ErrStaleTimestamp.Error())
		return
	}

	ok, err := c.App.Verifier.Verify(data.ColdkeyIdentity, data.Message, data.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, identity.ErrBadSignature.Error())
		return
	}

	mapping := &validatormodels.WalletMapping{
		Coldkey:    data.ColdkeyIdentity,
		EVMAddress: strings.ToLower(data.LedgerAddress),
		Signature:  data.Signature,
		Message:    data.Message,
		Timestamp:  data.Timestamp,
		VerifiedAt: now.UTC(),
	}
	if err := c.App.DB.SaveMapping(ctx, mapping); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	c.App.Logger.Info("Wallet mapping registered",
		zap.String("coldkey", mapping.Coldkey),
		zap.String("evm_address", mapping.EVMAddress))

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"coldkey":     mapping.Coldkey,
		"evm_address": mapping.EVMAddress,
	})
}

// HandleWalletMappingsList returns every live mapping, newest first.
// Endpoint: GET /api/wallet-mappings
func (c *Controller) HandleWalletMappingsList(w http.ResponseWriter, r *http.Request) {
	mappings, err := c.App.DB.ListMappings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": mappings,
	})
}

// HandleWalletMappingResolve returns the EVM address a coldkey is linked to.
// Endpoint: GET /api/wallet-mapping/{coldkey}
func (c *Controller) HandleWalletMappingResolve(w http.ResponseWriter, r *http.Request) {
	coldkey := mux.Vars(r)["coldkey"]

	address, err := c.App.DB.ResolveAddress(r.Context(), coldkey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if address == "" {
		writeError(w, http.StatusNotFound, "mapping not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"coldkey":     coldkey,
		"evm_address": address,
	})
}

// HandleWalletMappingDelete tombstones a coldkey's mapping. Admin only.
// Endpoint: DELETE /api/wallet-mapping/{coldkey}
func (c *Controller) HandleWalletMappingDelete(w http.ResponseWriter, r *http.Request) {
	coldkey := mux.Vars(r)["coldkey"]
	if coldkey == "" {
		writeError(w, http.StatusBadRequest, "missing coldkey")
		return
	}

	existed, err := c.App.DB.DeleteMapping(r.Context(), coldkey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "mapping not found")
		return
	}

	c.App.Logger.Info("Wallet mapping deleted", zap.String("coldkey", coldkey))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "coldkey": coldkey})
}
