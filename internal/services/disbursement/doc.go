// Package disbursement turns a merchant's unlinked orders into disbursements.
//
// A run walks every merchant on a bounded worker pool. Within one merchant the
// periods are settled strictly in order, since the monthly fee of a period
// reads the fees recorded for earlier ones.
package disbursement
