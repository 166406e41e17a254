package types

import "github.com/SipengXie/zipline/accesslist"

type CreateIdentityReq struct {
	EthAddress string `json:"ethAddress"`
}

type GetIdentityReq struct {
	EthAddress string `path:"ethAddress"`
}

type IdentityRes struct {
	EthAddress      string `json:"ethAddress"`
	Identity        string `json:"identity"`
	Authority       string `json:"authority"`
	SequenceCounter uint64 `json:"sequenceCounter"`
	NextSequence    uint64 `json:"nextSequence"`
	Lamports        uint64 `json:"lamports"`
}

// ExecuteReq carries a batch signed by the holder of EthAddress. Message is
// the hex encoded batch and Signature the 65-byte personal_sign result.
type ExecuteReq struct {
	EthAddress string `json:"ethAddress"`
	Message    string `json:"message"`
	Signature  string `json:"signature"`
	Simulate   bool   `json:"simulate,optional"`
}

type TxRes struct {
	TxHash     string                          `json:"txHash,omitempty"`
	Status     uint64                          `json:"status"`
	Logs       []string                        `json:"logs"`
	Error      string                          `json:"error,omitempty"`
	AccessList accesslist.RWAccessListsMarshal `json:"accessList"`
}
