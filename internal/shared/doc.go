// Package shared groups helpers used by more than one layer of chemviz.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on structured logs
//   - Equipment CSV fixtures covering the common ingestion cases
//
// Example usage:
//
//	func TestUpload(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteCSV(t, "plant.csv", testutil.PlantCSV)
//	    // ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
