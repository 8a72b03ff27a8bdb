package hostapi

// StubEvmApi is a minimal, in-memory EvmApi: durable storage backed by a
// map, no real sub-calls or account state. It exists for the CLI's `run`
// subcommand and for tests that need a concrete EvmApi without standing
// up a chain backend — the counterpart of the teacher lineage's own
// test-only host module implementations.
type StubEvmApi struct {
	Storage map[Bytes32]Bytes32
	Logs    []StubLog

	returnData []byte
}

// StubLog records one emit_log call for assertions in tests.
type StubLog struct {
	Data       []byte
	TopicCount uint32
}

// NewStubEvmApi returns an empty StubEvmApi.
func NewStubEvmApi() *StubEvmApi {
	return &StubEvmApi{Storage: make(map[Bytes32]Bytes32)}
}

func (s *StubEvmApi) GetBytes32(key Bytes32) (Bytes32, uint64, *Escape) {
	return s.Storage[key], 2100, nil
}

func (s *StubEvmApi) SetBytes32(key, value Bytes32) (uint64, Result[struct{}], *Escape) {
	s.Storage[key] = value
	return 20000, Ok(struct{}{}), nil
}

func (s *StubEvmApi) ContractCall(Address, []byte, uint64, Bytes32) (uint32, uint64, CallOutcome, *Escape) {
	return 0, 2600, CallFailure, nil
}

func (s *StubEvmApi) DelegateCall(Address, []byte, uint64) (uint32, uint64, CallOutcome, *Escape) {
	return 0, 2600, CallFailure, nil
}

func (s *StubEvmApi) StaticCall(Address, []byte, uint64) (uint32, uint64, CallOutcome, *Escape) {
	return 0, 2600, CallFailure, nil
}

func (s *StubEvmApi) Create1([]byte, Bytes32, uint64) (Result[Address], uint32, uint64, *Escape) {
	return Err[Address]("stub: create1 unsupported"), 0, 32000, nil
}

func (s *StubEvmApi) Create2([]byte, Bytes32, Bytes32, uint64) (Result[Address], uint32, uint64, *Escape) {
	return Err[Address]("stub: create2 unsupported"), 0, 32000, nil
}

func (s *StubEvmApi) GetReturnData(offset, size uint32) []byte {
	if int(offset) >= len(s.returnData) {
		return nil
	}
	end := offset + size
	if end > uint32(len(s.returnData)) {
		end = uint32(len(s.returnData))
	}
	return s.returnData[offset:end]
}

func (s *StubEvmApi) EmitLog(data []byte, topicCount uint32) (Result[struct{}], *Escape) {
	s.Logs = append(s.Logs, StubLog{Data: append([]byte(nil), data...), TopicCount: topicCount})
	return Ok(struct{}{}), nil
}

func (s *StubEvmApi) AccountBalance(Address) (Bytes32, uint64, *Escape) {
	return Bytes32{}, 2600, nil
}

func (s *StubEvmApi) AccountCodehash(Address) (Bytes32, uint64, *Escape) {
	return Bytes32{}, 2600, nil
}

func (s *StubEvmApi) AddPages(pages uint16) uint64 {
	return uint64(pages) * 2
}

func (s *StubEvmApi) ReportHostio(op string, gas, cost uint64) {}

func (s *StubEvmApi) ReportHostioAdvanced(op string, data []byte, offset, size uint32, gas, cost uint64) {
}

var _ EvmApi = (*StubEvmApi)(nil)
