package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user document can carry.
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleExpert = "expert"
)

// Plans. The legacy validator accepted "basic"/"Pro" while analytics bucketed
// basic/premium/pro; the three lowercase values are the reconciled set.
const (
	PlanBasic   = "basic"
	PlanPremium = "premium"
	PlanPro     = "pro"
)

// Account statuses.
const (
	StatusVerified   = "verified"
	StatusUnverified = "unverified"
	StatusSuspended  = "suspended"
)

// Subscription statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionInactive  = "inactive"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// Subscription types / durations.
const (
	SubscriptionMonthly = "monthly"
	SubscriptionYearly  = "yearly"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserRecord is the canonical representation of one user/admin/expert.
// Date fields are ISO-8601 strings at this boundary ("" meaning unset);
// ToDocument/UserRecordFromDocument translate the three subscription/credit
// dates to and from native Mongo datetimes.
type UserRecord struct {
	UserID      string            `json:"userId" bson:"userId"`
	UserName    string            `json:"userName" bson:"userName"`
	UserImage   map[string]string `json:"userImage" bson:"userImage"`
	UserEmail   string            `json:"userEmail" bson:"userEmail"`
	UserPhone   string            `json:"userPhone" bson:"userPhone"`
	UserAddress string            `json:"userAddress" bson:"userAddress"`
	Gender      string            `json:"gender" bson:"gender"`
	DOB         string            `json:"dob" bson:"dob"`
	Plan        string            `json:"plan" bson:"plan"`
	Status      string            `json:"status" bson:"status"`
	OTP         string            `json:"otp" bson:"otp"`
	FCMToken    string            `json:"fcmToken" bson:"fcmToken"`
	Role        string            `json:"role" bson:"role"`
	IsOnline    bool              `json:"isOnline" bson:"isOnline"`
	LastActive  string            `json:"lastActive" bson:"lastActive"`
	About       string            `json:"about" bson:"about"`
	Credits     int               `json:"credits" bson:"credits"`

	LastCreditReset string `json:"lastCreditReset" bson:"lastCreditReset"`

	SelectedPaymentMethods []any `json:"selectedPaymentMethods" bson:"selectedPaymentMethods"`
	PaymentHistory         []any `json:"paymentHistory" bson:"paymentHistory"`
	Notification           []any `json:"notification" bson:"notification"`
	Bookmarks              []any `json:"bookmarks" bson:"bookmarks"`
	MyPlants               []any `json:"myPlants" bson:"myPlants"`
	DiagnosisHistory       []any `json:"diagnosisHistory" bson:"diagnosisHistory"`
	PostArticle            []any `json:"postArticle" bson:"postArticle"`

	SubscriptionStatus    string `json:"subscriptionStatus" bson:"subscriptionStatus"`
	SubscriptionStartDate string `json:"subscriptionStartDate" bson:"subscriptionStartDate"`
	SubscriptionEndDate   string `json:"subscriptionEndDate" bson:"subscriptionEndDate"`
	SubscriptionType      string `json:"subscriptionType" bson:"subscriptionType"`
	AutoRenewal           bool   `json:"autoRenewal" bson:"autoRenewal"`

	CreatedAt string `json:"createdAt" bson:"createdAt"`
	UpdatedAt string `json:"updatedAt" bson:"updatedAt"`
}

// ProfileUpdateFields is the allow-list for self-service profile updates.
// Everything else (role, plan, credits, subscription state, ...) is admin-only.
var ProfileUpdateFields = []string{
	"userName", "userPhone", "userAddress", "gender", "dob", "about", "userImage",
}

// NewUserRecord builds a record from a partial field mapping. Absent fields
// resolve to their defaults; construction never fails and runs no validation.
func NewUserRecord(fields map[string]any) *UserRecord {
	now := isoNow()
	u := &UserRecord{
		Plan:                   PlanBasic,
		Status:                 StatusUnverified,
		Role:                   RoleUser,
		SubscriptionStatus:     SubscriptionInactive,
		SelectedPaymentMethods: []any{},
		PaymentHistory:         []any{},
		Notification:           []any{},
		Bookmarks:              []any{},
		MyPlants:               []any{},
		DiagnosisHistory:       []any{},
		PostArticle:            []any{},
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	u.ApplyUpdate(fields)
	return u
}

// ApplyUpdate merges a field mapping into the record. Only the fixed set of
// known keys is consulted; unknown keys are ignored. Values with the wrong
// shape for their field are skipped rather than coerced.
func (u *UserRecord) ApplyUpdate(fields map[string]any) {
	for key, value := range fields {
		switch key {
		case "userId":
			setString(&u.UserID, value)
		case "userName":
			setString(&u.UserName, value)
		case "userImage":
			if m, ok := asStringMap(value); ok {
				u.UserImage = m
			}
		case "userEmail":
			setString(&u.UserEmail, value)
		case "userPhone":
			setString(&u.UserPhone, value)
		case "userAddress":
			setString(&u.UserAddress, value)
		case "gender":
			setString(&u.Gender, value)
		case "dob":
			setString(&u.DOB, value)
		case "plan":
			setString(&u.Plan, value)
		case "status":
			setString(&u.Status, value)
		case "otp":
			setString(&u.OTP, value)
		case "fcmToken":
			setString(&u.FCMToken, value)
		case "role":
			setString(&u.Role, value)
		case "isOnline":
			if b, ok := asBool(value); ok {
				u.IsOnline = b
			}
		case "lastActive":
			setString(&u.LastActive, value)
		case "about":
			setString(&u.About, value)
		case "credits":
			if n, ok := asInt(value); ok {
				u.Credits = n
			}
		case "lastCreditReset":
			setString(&u.LastCreditReset, value)
		case "selectedPaymentMethods":
			setSlice(&u.SelectedPaymentMethods, value)
		case "paymentHistory":
			setSlice(&u.PaymentHistory, value)
		case "notification":
			setSlice(&u.Notification, value)
		case "bookmarks":
			setSlice(&u.Bookmarks, value)
		case "myPlants":
			setSlice(&u.MyPlants, value)
		case "diagnosisHistory":
			setSlice(&u.DiagnosisHistory, value)
		case "postArticle":
			setSlice(&u.PostArticle, value)
		case "subscriptionStatus":
			setString(&u.SubscriptionStatus, value)
		case "subscriptionStartDate":
			setString(&u.SubscriptionStartDate, value)
		case "subscriptionEndDate":
			setString(&u.SubscriptionEndDate, value)
		case "subscriptionType":
			setString(&u.SubscriptionType, value)
		case "autoRenewal":
			if b, ok := asBool(value); ok {
				u.AutoRenewal = b
			}
		case "createdAt":
			setString(&u.CreatedAt, value)
		case "updatedAt":
			setString(&u.UpdatedAt, value)
		}
	}
}

// Validate checks the record against the persistence rules. All rules run
// independently; every failing rule contributes one message. An empty slice
// means the record may be written.
func (u *UserRecord) Validate() []string {
	var errs []string

	if len(strings.TrimSpace(u.UserName)) < 2 {
		errs = append(errs, "User name must be at least 2 characters long")
	}
	if u.UserEmail == "" || !emailPattern.MatchString(u.UserEmail) {
		errs = append(errs, "Valid email is required")
	}
	if len(strings.TrimSpace(u.UserPhone)) < 10 {
		errs = append(errs, "Valid phone number is required")
	}
	switch u.Role {
	case RoleUser, RoleAdmin, RoleExpert:
	default:
		errs = append(errs, "Invalid role specified")
	}
	switch u.Plan {
	case PlanBasic, PlanPremium, PlanPro:
	default:
		errs = append(errs, "Invalid plan specified")
	}
	switch u.Status {
	case StatusVerified, StatusUnverified, StatusSuspended:
	default:
		errs = append(errs, "Invalid status specified")
	}

	return errs
}

// ToDocument produces the Mongo document form of the record. The three
// credit/subscription dates become native datetimes when they parse as
// ISO-8601; updatedAt is stamped with the current time. The document does not
// carry the userId, which lives in the collection key (_id).
func (u *UserRecord) ToDocument() bson.M {
	return bson.M{
		"userName":               u.UserName,
		"userImage":              u.UserImage,
		"userEmail":              u.UserEmail,
		"userPhone":              u.UserPhone,
		"userAddress":            u.UserAddress,
		"gender":                 u.Gender,
		"dob":                    u.DOB,
		"plan":                   u.Plan,
		"status":                 u.Status,
		"otp":                    u.OTP,
		"fcmToken":               u.FCMToken,
		"role":                   u.Role,
		"isOnline":               u.IsOnline,
		"lastActive":             u.LastActive,
		"about":                  u.About,
		"credits":                u.Credits,
		"lastCreditReset":        dateOrString(u.LastCreditReset),
		"selectedPaymentMethods": u.SelectedPaymentMethods,
		"paymentHistory":         u.PaymentHistory,
		"notification":           u.Notification,
		"bookmarks":              u.Bookmarks,
		"myPlants":               u.MyPlants,
		"diagnosisHistory":       u.DiagnosisHistory,
		"postArticle":            u.PostArticle,
		"subscriptionStatus":     u.SubscriptionStatus,
		"subscriptionStartDate":  dateOrString(u.SubscriptionStartDate),
		"subscriptionEndDate":    dateOrString(u.SubscriptionEndDate),
		"subscriptionType":       u.SubscriptionType,
		"autoRenewal":            u.AutoRenewal,
		"createdAt":              u.CreatedAt,
		"updatedAt":              isoNow(),
	}
}

// UserRecordFromDocument rebuilds a record from its Mongo document. The uid
// comes from the document key, never from the body; native datetimes for the
// three date fields are rendered back to ISO-8601 strings.
func UserRecordFromDocument(uid string, doc bson.M) *UserRecord {
	u := NewUserRecord(nil)
	u.UserID = uid
	u.UserName = docString(doc, "userName")
	if m, ok := asStringMap(doc["userImage"]); ok {
		u.UserImage = m
	}
	u.UserEmail = docString(doc, "userEmail")
	u.UserPhone = docString(doc, "userPhone")
	u.UserAddress = docString(doc, "userAddress")
	u.Gender = docString(doc, "gender")
	u.DOB = docString(doc, "dob")
	u.Plan = docStringDefault(doc, "plan", u.Plan)
	u.Status = docStringDefault(doc, "status", u.Status)
	u.OTP = docString(doc, "otp")
	u.FCMToken = docString(doc, "fcmToken")
	u.Role = docStringDefault(doc, "role", u.Role)
	if b, ok := asBool(doc["isOnline"]); ok {
		u.IsOnline = b
	}
	u.LastActive = docString(doc, "lastActive")
	u.About = docString(doc, "about")
	if n, ok := asInt(doc["credits"]); ok {
		u.Credits = n
	}
	u.LastCreditReset = docDate(doc, "lastCreditReset")
	setSlice(&u.SelectedPaymentMethods, doc["selectedPaymentMethods"])
	setSlice(&u.PaymentHistory, doc["paymentHistory"])
	setSlice(&u.Notification, doc["notification"])
	setSlice(&u.Bookmarks, doc["bookmarks"])
	setSlice(&u.MyPlants, doc["myPlants"])
	setSlice(&u.DiagnosisHistory, doc["diagnosisHistory"])
	setSlice(&u.PostArticle, doc["postArticle"])
	u.SubscriptionStatus = docStringDefault(doc, "subscriptionStatus", u.SubscriptionStatus)
	u.SubscriptionStartDate = docDate(doc, "subscriptionStartDate")
	u.SubscriptionEndDate = docDate(doc, "subscriptionEndDate")
	u.SubscriptionType = docString(doc, "subscriptionType")
	if b, ok := asBool(doc["autoRenewal"]); ok {
		u.AutoRenewal = b
	}
	u.CreatedAt = docStringDefault(doc, "createdAt", u.CreatedAt)
	u.UpdatedAt = docStringDefault(doc, "updatedAt", u.UpdatedAt)
	return u
}

// ActivateSubscription puts the record into the active state. A duration
// outside monthly/yearly leaves the end date at the start date (zero-length
// subscription); callers are expected to validate the duration first.
func (u *UserRecord) ActivateSubscription(subType, duration string) {
	now := time.Now().UTC()
	u.SubscriptionStatus = SubscriptionActive
	u.SubscriptionType = subType
	u.SubscriptionStartDate = formatISO(now)

	end := now
	switch duration {
	case SubscriptionMonthly:
		end = now.AddDate(0, 1, 0)
	case SubscriptionYearly:
		end = now.AddDate(1, 0, 0)
	}
	u.SubscriptionEndDate = formatISO(end)
	u.UpdatedAt = isoNow()
}

// CancelSubscription marks the subscription cancelled and turns off renewal.
func (u *UserRecord) CancelSubscription() {
	u.SubscriptionStatus = SubscriptionCancelled
	u.AutoRenewal = false
	u.UpdatedAt = isoNow()
}

// ExtendSubscription pushes the end date out by one month or year. With no
// end date set the call is a no-op.
func (u *UserRecord) ExtendSubscription(duration string) {
	end, err := parseISO(u.SubscriptionEndDate)
	if err != nil {
		return
	}
	switch duration {
	case SubscriptionMonthly:
		end = end.AddDate(0, 1, 0)
	case SubscriptionYearly:
		end = end.AddDate(1, 0, 0)
	}
	u.SubscriptionEndDate = formatISO(end)
	u.UpdatedAt = isoNow()
}

// SubscriptionIsActive reports whether the subscription is live right now.
// This is derived from the end date; the stored subscriptionStatus can lag
// behind it after natural expiry (lazy expiry).
func (u *UserRecord) SubscriptionIsActive() bool {
	if u.SubscriptionStatus != SubscriptionActive {
		return false
	}
	end, err := parseISO(u.SubscriptionEndDate)
	if err != nil {
		return false
	}
	return time.Now().Before(end)
}

// RefreshSubscriptionStatus corrects a stale active status once the end date
// has passed. Returns true when the record changed and needs persisting.
func (u *UserRecord) RefreshSubscriptionStatus() bool {
	if u.SubscriptionStatus != SubscriptionActive {
		return false
	}
	end, err := parseISO(u.SubscriptionEndDate)
	if err != nil {
		return false
	}
	if time.Now().Before(end) {
		return false
	}
	u.SubscriptionStatus = SubscriptionExpired
	u.UpdatedAt = isoNow()
	return true
}

// SetPresence flips the online flag and records the moment as lastActive.
func (u *UserRecord) SetPresence(online bool) {
	u.IsOnline = online
	u.LastActive = isoNow()
	u.UpdatedAt = u.LastActive
}

// Touch stamps the record as just-mutated.
func (u *UserRecord) Touch() {
	u.UpdatedAt = isoNow()
}

// --- field coercion helpers ---

func setString(dst *string, v any) {
	if s, ok := v.(string); ok {
		*dst = s
	}
}

func setSlice(dst *[]any, v any) {
	switch s := v.(type) {
	case []any:
		*dst = s
	case primitive.A:
		*dst = []any(s)
	}
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		// Legacy documents carried "true"/"false" strings.
		if b == "true" {
			return true, true
		}
		if b == "false" {
			return false, true
		}
	}
	return false, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asStringMap(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		return out, true
	case bson.M:
		return asStringMap(map[string]any(m))
	}
	return nil, false
}

func docString(doc bson.M, key string) string {
	s, _ := doc[key].(string)
	return s
}

func docStringDefault(doc bson.M, key, def string) string {
	if s, ok := doc[key].(string); ok && s != "" {
		return s
	}
	return def
}

// docDate renders a stored date back to an ISO-8601 string. Native datetimes
// convert; strings pass through unchanged.
func docDate(doc bson.M, key string) string {
	switch t := doc[key].(type) {
	case primitive.DateTime:
		return formatISO(t.Time().UTC())
	case time.Time:
		return formatISO(t.UTC())
	case string:
		return t
	}
	return ""
}

// dateOrString converts an ISO-8601 string to a native datetime for storage,
// passing non-date strings (and "") through as-is.
func dateOrString(s string) any {
	t, err := parseISO(s)
	if err != nil {
		return s
	}
	return primitive.NewDateTimeFromTime(t)
}

func parseISO(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func formatISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func isoNow() string {
	return formatISO(time.Now())
}
