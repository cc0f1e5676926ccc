// Package award classifies a site's indicator row into an award tier.
//
// Classify is pure. A site below the patient limit is STROKEREADY; any other
// site gets the meet (lowest tier) of the per-metric grades:
//
//   - door to treatment timing: <50% STROKEREADY, [50,75) GOLD, >=75 DIAMOND,
//     capped at PLATINUM when the stricter cut-off is below 50%
//   - door to thrombectomy, new strategy only, for sites with more than 3
//     eligible patients: same bands at 120 and 90 minutes
//   - recanalization rate: <5 STROKEREADY, [5,15) GOLD, [15,25) PLATINUM
//   - CT/MRI, dysphagia screening, antiplatelets and anticoagulants:
//     <80 STROKEREADY, [80,85) GOLD, [85,90) PLATINUM
//   - stroke unit: below 1% caps at PLATINUM
//
// Values that did not parse are NaN and grade STROKEREADY. Explain returns
// the grades that held a site below DIAMOND.
package award
