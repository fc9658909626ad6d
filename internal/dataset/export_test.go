package dataset

// VixLevel exposes vixLevel to external tests.
var VixLevel = vixLevel
