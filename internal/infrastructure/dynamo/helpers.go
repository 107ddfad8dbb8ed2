package dynamo

import (
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute and index names of the account tables.
const (
	attrAccountID = "account_id"
	attrUsername  = "username"
	attrEmail     = "email"
	attrUniqueKey = "unique_key"

	indexUsername = "username-index"
	indexEmail    = "email-index"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// uniqueMarker is the key of the row reserving a unique attribute value,
// e.g. "username#alice".
func uniqueMarker(attr, value string) string {
	return attr + "#" + value
}

// isConditionFailure reports whether err is a failed condition expression,
// either on a single write or on any item of a cancelled transaction.
func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, r := range tce.CancellationReasons {
			if r.Code != nil && strings.EqualFold(*r.Code, "ConditionalCheckFailed") {
				return true
			}
		}
	}
	return false
}
