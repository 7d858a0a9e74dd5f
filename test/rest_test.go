//go:build integration

package test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/relabs-tech/modelrest/core/notify"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
)

type RestTestSuite struct {
	IntegrationTestSuite
}

func TestRestTestSuite(t *testing.T) {
	suite.Run(t, &RestTestSuite{})
}

type created struct {
	UUID string `json:"uuid"`
}

func (s *RestTestSuite) TestRoundTrip() {
	mixed := s.client.Model("mixed")
	body := map[string]interface{}{
		"myStringProp":  "hello",
		"myIntegerProp": float64(42),
		"myNumberProp":  2.5,
		"myBooleanProp": false,
		"myDateProp":    "2021-03-04T05:06:07Z",
	}
	var c created
	status, err := mixed.Create(body, &c)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, status)

	var record map[string]interface{}
	_, err = mixed.Read(c.UUID, &record)
	s.Require().NoError(err)
	body["uuid"] = c.UUID
	s.Equal(body, record)

	_, err = mixed.Delete(c.UUID)
	s.Require().NoError(err)
	res, err := s.client.Do(http.MethodDelete, mixed.ItemPath(c.UUID), nil, nil)
	s.Require().NoError(err)
	s.Equal(http.StatusNotFound, res.Status)
}

func (s *RestTestSuite) TestReplace() {
	mixed := s.client.Model("mixed")
	id := uuid.New().String()

	_, err := mixed.Replace(id, map[string]interface{}{"myStringProp": "a", "myIntegerProp": 1}, nil)
	s.Require().NoError(err)
	_, err = mixed.Replace(id, map[string]interface{}{"myIntegerProp": 2}, nil)
	s.Require().NoError(err)

	var record map[string]interface{}
	_, err = mixed.Read(id, &record)
	s.Require().NoError(err)
	s.Equal(map[string]interface{}{"uuid": id, "myIntegerProp": float64(2)}, record)
}

func (s *RestTestSuite) TestSearch() {
	letters := s.client.Model("letters")
	ids := map[string]string{}
	for _, prop := range []string{"a", "b", "c", ""} {
		body := map[string]interface{}{}
		if prop != "" {
			body["prop"] = prop
		}
		var c created
		_, err := letters.Create(body, &c)
		s.Require().NoError(err)
		ids[prop] = c.UUID
	}

	tests := map[string][]string{
		"prop:eq:b":        {"b"},
		"prop:lt:b":        {"a"},
		"prop:between:a:b": {"a", "b"},
		"prop:null":        {""},
	}
	for q, want := range tests {
		var result struct {
			Items []created `json:"items"`
		}
		_, err := letters.WithQuery(q).WithParameter("sortBy", "prop").List(&result)
		s.Require().NoError(err, q)
		var got []string
		for _, item := range result.Items {
			got = append(got, item.UUID)
		}
		var expected []string
		for _, prop := range want {
			expected = append(expected, ids[prop])
		}
		s.Equal(expected, got, q)
	}
}

func (s *RestTestSuite) TestNotifications() {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{s.kafkaAddr},
		Topic:     notificationTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()
	s.Require().NoError(reader.SetOffset(kafka.LastOffset))

	var c created
	_, err := s.client.Model("mixed").Create(map[string]interface{}{"myStringProp": "notified"}, &c)
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for {
		msg, err := reader.ReadMessage(ctx)
		s.Require().NoError(err)
		if string(msg.Key) != c.UUID {
			continue
		}
		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		s.Equal("mixed", headers[notify.HeaderModel])
		s.Equal("create", headers[notify.HeaderOperation])
		s.JSONEq(`{"uuid":"`+c.UUID+`","myStringProp":"notified"}`, string(msg.Value))
		return
	}
}

func (s *RestTestSuite) TestSecret() {
	res, err := s.client.Do(http.MethodGet, "/api/secret", nil, nil)
	s.Require().NoError(err)
	s.Equal(http.StatusForbidden, res.Status)
}
