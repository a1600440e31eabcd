package events

import "errors"

// ErrApproverRequired is returned by ManualAdjustment when no approver
// identity is supplied - an adjustment that bypasses every other
// handler's fixed entry shape always names who authorized it.
var ErrApproverRequired = errors.New("manual adjustment requires an approver")
