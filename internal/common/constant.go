package common

// UnlimitedQuota is the sentinel ceiling meaning "no limit". It is never an
// arbitrarily large number and short-circuits all ceiling arithmetic.
const UnlimitedQuota int64 = -1

// PinLength is the required number of digits in a vault PIN.
const PinLength = 6
