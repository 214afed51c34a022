package submddb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ikk-contest/backend/subm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writerMock struct {
	putItem    func(ctx context.Context, params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateItem func(ctx context.Context, params *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
}

func (m writerMock) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return m.putItem(ctx, params)
}

func (m writerMock) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return m.updateItem(ctx, params)
}

func newRepoWithWriter(w itemWriter) *DdbSubmRepo {
	return &DdbSubmRepo{writer: w, tableName: "ikk_submissions_test"}
}

func sampleSubm() subm.Subm {
	return subm.Subm{
		Key:            "subm_yılmaz_ayşe_05551112233",
		StudentName:    "Ayşe",
		StudentSurname: "Yılmaz",
		ParentPhone:    "0555 111 22 33",
		School:         "Atatürk İlkokulu",
		Grade:          "1",
		Category:       subm.CategoryPainting,
		AIConsent:      true,
		SocialFollow:   true,
		FileName:       "resim.png",
		FileType:       "image/png",
		FilePath:       "submissions/uid-1/IKK-AB12CD34_resim.png",
		FileURL:        "https://blobs.example/x",
		ValidationID:   "IKK-AB12CD34",
		OwnerUID:       "uid-1",
		CreatedAt:      time.Date(2026, 3, 1, 9, 30, 0, 123000000, time.UTC),
		Status:         subm.StatusInReview,
		AIScore:        subm.ScoreQueued,
	}
}

func TestCreateUsesAttributeNotExists(t *testing.T) {
	var got *dynamodb.PutItemInput
	repo := newRepoWithWriter(writerMock{putItem: func(ctx context.Context, params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
		got = params
		return &dynamodb.PutItemOutput{}, nil
	}})

	require.NoError(t, repo.Create(context.Background(), sampleSubm()))
	require.NotNil(t, got)
	assert.Equal(t, "ikk_submissions_test", *got.TableName)
	assert.Contains(t, *got.ConditionExpression, "attribute_not_exists")
	assert.Contains(t, got.ExpressionAttributeNames, "#0")
	assert.Equal(t, "subm_key", got.ExpressionAttributeNames["#0"])

	var row submRow
	require.NoError(t, attributevalue.UnmarshalMap(got.Item, &row))
	back, err := row.toSubm()
	require.NoError(t, err)
	assert.Equal(t, sampleSubm(), back)
}

func TestCreateMapsConditionFailureToKeyTaken(t *testing.T) {
	repo := newRepoWithWriter(writerMock{putItem: func(ctx context.Context, params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
		return nil, &types.ConditionalCheckFailedException{Message: new(string)}
	}})
	err := repo.Create(context.Background(), sampleSubm())
	assert.ErrorIs(t, err, subm.ErrKeyTaken)
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	repo := newRepoWithWriter(writerMock{putItem: func(ctx context.Context, params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
		t.Fatal("invalid record must not reach the table")
		return nil, nil
	}})
	s := sampleSubm()
	s.Grade = "9"
	assert.ErrorIs(t, repo.Create(context.Background(), s), subm.ErrInvalidRecord)
}

func TestSetAIScoreIsConditional(t *testing.T) {
	var got *dynamodb.UpdateItemInput
	repo := newRepoWithWriter(writerMock{updateItem: func(ctx context.Context, params *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		got = params
		return &dynamodb.UpdateItemOutput{}, nil
	}})

	require.NoError(t, repo.SetAIScore(context.Background(), "subm_a_b_1", subm.ScoreQueued, "%5 (Temiz)"))
	require.NotNil(t, got)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "subm_a_b_1"}, got.Key["subm_key"])
	assert.Contains(t, *got.UpdateExpression, "SET")
	assert.NotEmpty(t, *got.ConditionExpression)

	var values []string
	for _, v := range got.ExpressionAttributeValues {
		values = append(values, v.(*types.AttributeValueMemberS).Value)
	}
	assert.ElementsMatch(t, []string{subm.ScoreQueued, "%5 (Temiz)"}, values)
}

func TestSetAIScoreConditionFailures(t *testing.T) {
	testCases := []struct {
		name string
		item map[string]types.AttributeValue
		want error
	}{
		{"Missing Item", nil, subm.ErrNotFound},
		{"Already Scored", map[string]types.AttributeValue{
			"ai_score": &types.AttributeValueMemberS{Value: "%90 (AI Üretimi)"},
		}, subm.ErrScoreSettled},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newRepoWithWriter(writerMock{updateItem: func(ctx context.Context, params *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{Item: tc.item}
			}})
			err := repo.SetAIScore(context.Background(), "subm_a_b_1", subm.ScoreQueued, "x")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSetAIScorePassesOtherErrors(t *testing.T) {
	boom := errors.New("throttled")
	repo := newRepoWithWriter(writerMock{updateItem: func(ctx context.Context, params *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return nil, boom
	}})
	err := repo.SetAIScore(context.Background(), "k", subm.ScoreQueued, "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, subm.ErrScoreSettled)
}

func TestRowWithBadTimestampIsRejected(t *testing.T) {
	row := rowFromSubm(sampleSubm())
	row.CreatedAtRfc3339 = "yesterday"
	_, err := row.toSubm()
	assert.ErrorIs(t, err, subm.ErrInvalidRecord)
}
