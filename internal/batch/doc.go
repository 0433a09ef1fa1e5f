// Package batch runs the conversion loop over the queued items.
//
// A batch is strictly sequential: items convert one at a time in queue order.
// Cancellation is cooperative and observed only at item boundaries; a decode
// already in flight always runs to completion. Item failures are recorded on
// the item and never abort the batch, while pre-flight failures abort before
// any item changes state.
package batch
