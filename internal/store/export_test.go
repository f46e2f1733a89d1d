package store

// RunItemStoreSuite lets the integration tests run the contract suite
// against postgres.
var RunItemStoreSuite = runItemStoreSuite
