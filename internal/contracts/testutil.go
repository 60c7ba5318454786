package contracts

import "testing"

// The helpers below expose this package's unexported ABI definitions to
// other packages' tests (relay) so they can build realistic
// calldata and log fixtures without duplicating the ABI JSON.

func TestPackMainReturn(t testing.TB, method string, args ...interface{}) ([]byte, error) {
	t.Helper()
	return mainABI.Methods[method].Outputs.Pack(args...)
}

func TestPackSideReturn(t testing.TB, method string, args ...interface{}) ([]byte, error) {
	t.Helper()
	return sideABI.Methods[method].Outputs.Pack(args...)
}

func TestEncodeRelayMessageData(t testing.TB, sender, recipient interface{}) []byte {
	t.Helper()
	b, err := mainABI.Events["RelayMessage"].Inputs.NonIndexed().Pack(sender, recipient)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestEncodeWithdrawData(t testing.TB, recipient interface{}, value, gasPrice interface{}) []byte {
	t.Helper()
	b, err := sideABI.Events["Withdraw"].Inputs.NonIndexed().Pack(recipient, value, gasPrice)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestEncodeCollectedSignaturesData(t testing.TB, authority interface{}, messageHash interface{}) []byte {
	t.Helper()
	b, err := sideABI.Events["CollectedSignatures"].Inputs.NonIndexed().Pack(authority, messageHash)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// TestSideSelector returns the 4-byte function selector for a side-contract
// method, letting a test's mock CallContract dispatch on which method was
// called.
func TestSideSelector(t testing.TB, method string) []byte {
	t.Helper()
	return sideABI.Methods[method].ID
}
