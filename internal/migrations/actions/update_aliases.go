package actions

import (
	"context"
	"net/http"
	"regexp"

	"github.com/openshift/kibana-migrator/internal/constants"
	"github.com/openshift/kibana-migrator/internal/elasticsearch"
	estypes "github.com/openshift/kibana-migrator/internal/types/elasticsearch"
)

const UpdateAliasesSucceeded = "update_aliases_succeeded"

var matchesAliasReason = regexp.MustCompile(`The provided expression \[.+\] matches an alias, specify the corresponding concrete indices instead\.`)

// UpdateAliases applies actions atomically. All actions fail if one of
// them references a missing index or alias.
func UpdateAliases(client elasticsearch.Client, actions []estypes.AliasAction) TaskEither[Failure, string] {
	body := estypes.AliasActions{Actions: append([]estypes.AliasAction(nil), actions...)}

	return func(ctx context.Context) (Either[Failure, string], error) {
		_, err := client.UpdateAliases(ctx, body, constants.DefaultTimeout)
		if err == nil {
			return Right[Failure](UpdateAliasesSucceeded), nil
		}

		if re, ok := elasticsearch.AsResponseError(err); ok {
			switch {
			case re.Type == IndexNotFoundType:
				return Left[Failure, string](IndexNotFound{Index: re.Index}), nil
			case re.Type == "aliases_not_found_exception" ||
				(re.StatusCode == http.StatusNotFound && re.Type == "" && re.Reason != ""):
				return Left[Failure, string](AliasNotFound{}), nil
			case re.Type == "illegal_argument_exception" && matchesAliasReason.MatchString(re.Reason):
				return Left[Failure, string](RemoveIndexNotAConcreteIndex{}), nil
			}
		}
		return catchRetryableFailure[string](err)
	}
}
