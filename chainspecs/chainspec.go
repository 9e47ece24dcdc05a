package chainspecs

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/colorfulnotion/rollup/common"
	"github.com/colorfulnotion/rollup/statedb"
	"github.com/colorfulnotion/rollup/types"
)

//go:embed *.json
var configFS embed.FS

var networkFile = map[string]string{
	"dev": "dev-spec.json",
}

// ReadSpec loads a named embedded spec, or a spec file if id is a path.
func ReadSpec(id string) (spec *ChainSpec, err error) {
	var data []byte
	path, ok := networkFile[id]
	if ok {
		data, err = configFS.ReadFile(path)
	} else {
		data, err = os.ReadFile(id)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("chain spec %s: %w", id, err)
	}
	return spec, nil
}

// GenesisAccount is an account present at block 0. Id and state commitment
// are derived from Name when omitted.
type GenesisAccount struct {
	Name            string           `json:"name"`
	Id              *types.AccountId `json:"id,omitempty"`
	StateCommitment *common.Word     `json:"state_commitment,omitempty"`
}

func (a GenesisAccount) AccountId() types.AccountId {
	if a.Id != nil {
		return *a.Id
	}
	return types.AccountIdFromSeed([]byte(a.Name))
}

func (a GenesisAccount) Commitment() common.Word {
	if a.StateCommitment != nil {
		return *a.StateCommitment
	}
	return common.WordFromSeed([]byte("genesis state " + a.Name))
}

type ChainSpec struct {
	ID                  string           `json:"id"`
	ProtocolVersion     uint32           `json:"protocol_version"`
	GenesisTimestamp    uint32           `json:"genesis_timestamp"`
	BlockInterval       uint32           `json:"block_interval"`
	NativeAsset         string           `json:"native_asset"`
	VerificationBaseFee uint32           `json:"verification_base_fee"`
	TxKernelCommitment  common.Word      `json:"tx_kernel_commitment"`
	GenesisAccounts     []GenesisAccount `json:"genesis_accounts"`
}

// Account looks up a genesis account by name.
func (s *ChainSpec) Account(name string) (types.AccountId, bool) {
	for _, a := range s.GenesisAccounts {
		if a.Name == name {
			return a.AccountId(), true
		}
	}
	return types.AccountId{}, false
}

func (s *ChainSpec) FeeParameters() types.FeeParameters {
	return types.FeeParameters{
		NativeAssetId:       types.AccountIdFromSeed([]byte(s.NativeAsset)),
		VerificationBaseFee: s.VerificationBaseFee,
	}
}

func (s *ChainSpec) GenesisConfig() statedb.GenesisConfig {
	accounts := make([]statedb.AccountEntry, 0, len(s.GenesisAccounts))
	for _, a := range s.GenesisAccounts {
		accounts = append(accounts, statedb.AccountEntry{Id: a.AccountId(), Commitment: a.Commitment()})
	}
	return statedb.GenesisConfig{
		Version:            s.ProtocolVersion,
		Timestamp:          s.GenesisTimestamp,
		FeeParameters:      s.FeeParameters(),
		TxKernelCommitment: s.TxKernelCommitment,
		Accounts:           accounts,
	}
}

// Genesis builds the full chain state holding only block 0.
func (s *ChainSpec) Genesis() (*statedb.ChainState, error) {
	state, err := statedb.NewGenesisState(s.GenesisConfig())
	if err != nil {
		return nil, fmt.Errorf("chain spec %s genesis: %w", s.ID, err)
	}
	return state, nil
}
