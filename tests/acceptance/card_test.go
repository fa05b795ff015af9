package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vaultgate/card-token-service/internal/dto"
)

func validCardRequest() dto.IssueCardRequest {
	return dto.IssueCardRequest{
		CardNumber:     "4111111111111111",
		CardholderName: "ALICE EXAMPLE",
		ExpiryMonth:    12,
		ExpiryYear:     time.Now().UTC().Year() + 2,
		CVV:            "123",
	}
}

// issueCard issues a card token with the given scope using a user token
func (s *Suite) issueCard(userToken, scope string) dto.CardTokenResponse {
	req := validCardRequest()
	req.Scope = scope
	body, _ := json.Marshal(req)

	httpReq, _ := http.NewRequest("POST", s.BaseURL+"/card", bytes.NewBuffer(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+userToken)

	resp, err := http.DefaultClient.Do(httpReq)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "Issue should succeed")

	var cardResp dto.CardTokenResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&cardResp))
	return cardResp
}

func (s *Suite) cardRequest(method, path, cardToken string) *http.Response {
	req, _ := http.NewRequest(method, s.BaseURL+path, nil)
	req.Header.Set("Authorization", "Bearer "+cardToken)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) TestIssueCard_Success() {
	s.signup("issue@example.com", "Abcdef12")
	login := s.login("issue@example.com", "Abcdef12")

	card := s.issueCard(login.AccessToken, "")

	s.NotEmpty(card.ID)
	s.NotEmpty(card.SignedToken)
	s.Equal("************1111", card.MaskedCardNumber)
	s.Equal("ALICE EXAMPLE", card.CardholderName)
	s.Equal("full-access", card.Scope, "scope defaults to full-access")
	s.False(card.IsRevoked)
	s.NotEmpty(card.ExpiresAt)
}

func (s *Suite) TestIssueCard_InvalidCardNumber() {
	s.signup("luhn@example.com", "Abcdef12")
	login := s.login("luhn@example.com", "Abcdef12")

	req := validCardRequest()
	req.CardNumber = "4111111111111112"
	body, _ := json.Marshal(req)

	httpReq, _ := http.NewRequest("POST", s.BaseURL+"/card", bytes.NewBuffer(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+login.AccessToken)

	resp, err := http.DefaultClient.Do(httpReq)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestIssueCard_NoUserToken() {
	body, _ := json.Marshal(validCardRequest())

	resp, err := http.Post(s.BaseURL+"/card", "application/json", bytes.NewBuffer(body))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestListCards_OwnershipIsolation() {
	s.signup("owner-a@example.com", "Abcdef12")
	s.signup("owner-b@example.com", "Abcdef12")
	loginA := s.login("owner-a@example.com", "Abcdef12")
	loginB := s.login("owner-b@example.com", "Abcdef12")

	s.issueCard(loginA.AccessToken, "")
	s.issueCard(loginA.AccessToken, "")
	s.issueCard(loginB.AccessToken, "")

	req, _ := http.NewRequest("GET", s.BaseURL+"/card", nil)
	req.Header.Set("Authorization", "Bearer "+loginA.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var cards []dto.CardTokenResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&cards))
	s.Len(cards, 2, "only the caller's tokens are listed")
}

func (s *Suite) TestGetCard_WithCardToken() {
	s.signup("get@example.com", "Abcdef12")
	login := s.login("get@example.com", "Abcdef12")
	card := s.issueCard(login.AccessToken, "read-only")

	resp := s.cardRequest("GET", "/card/"+card.ID, card.SignedToken)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var got dto.CardTokenResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&got))
	s.Equal(card.ID, got.ID)
	s.Equal("read-only", got.Scope)
}

func (s *Suite) TestRevokeCard_FullFlow() {
	s.signup("revoke@example.com", "Abcdef12")
	login := s.login("revoke@example.com", "Abcdef12")
	card := s.issueCard(login.AccessToken, "")

	resp := s.cardRequest("PATCH", fmt.Sprintf("/card/%s/revoke", card.ID), card.SignedToken)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var revoked dto.CardTokenResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&revoked))
	s.True(revoked.IsRevoked)

	// The revoked token no longer authenticates anything.
	resp2 := s.cardRequest("PATCH", fmt.Sprintf("/card/%s/revoke", card.ID), card.SignedToken)
	defer resp2.Body.Close()
	s.Equal(http.StatusUnauthorized, resp2.StatusCode)
}

func (s *Suite) TestRevokeCard_ReadOnlyScopeForbidden() {
	s.signup("scoped@example.com", "Abcdef12")
	login := s.login("scoped@example.com", "Abcdef12")
	card := s.issueCard(login.AccessToken, "read-only")

	resp := s.cardRequest("PATCH", fmt.Sprintf("/card/%s/revoke", card.ID), card.SignedToken)
	defer resp.Body.Close()

	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *Suite) TestRefreshCard_Success() {
	s.signup("refresh@example.com", "Abcdef12")
	login := s.login("refresh@example.com", "Abcdef12")
	card := s.issueCard(login.AccessToken, "refresh-only")

	resp := s.cardRequest("POST", fmt.Sprintf("/card/%s/refresh", card.ID), card.SignedToken)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var refreshed dto.CardTokenResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&refreshed))
	s.NotEqual(card.SignedToken, refreshed.SignedToken)
	s.Equal(card.ID, refreshed.ID)
	s.Equal("refresh-only", refreshed.Scope)

	// The superseded token string stops working.
	resp2 := s.cardRequest("GET", "/card/"+card.ID, card.SignedToken)
	defer resp2.Body.Close()
	s.Equal(http.StatusUnauthorized, resp2.StatusCode)

	// The new one keeps working.
	resp3 := s.cardRequest("GET", "/card/"+card.ID, refreshed.SignedToken)
	defer resp3.Body.Close()
	s.Equal(http.StatusOK, resp3.StatusCode)
}

func (s *Suite) TestRefreshCard_ReadOnlyScopeForbidden() {
	s.signup("refresh-ro@example.com", "Abcdef12")
	login := s.login("refresh-ro@example.com", "Abcdef12")
	card := s.issueCard(login.AccessToken, "read-only")

	resp := s.cardRequest("POST", fmt.Sprintf("/card/%s/refresh", card.ID), card.SignedToken)
	defer resp.Body.Close()

	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *Suite) TestDeleteCard_Success() {
	s.signup("delete@example.com", "Abcdef12")
	login := s.login("delete@example.com", "Abcdef12")
	card := s.issueCard(login.AccessToken, "")

	resp := s.cardRequest("DELETE", "/card/"+card.ID, card.SignedToken)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	// The deleted row is gone from the listing.
	req, _ := http.NewRequest("GET", s.BaseURL+"/card", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	listResp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer listResp.Body.Close()

	var cards []dto.CardTokenResponse
	s.Require().NoError(json.NewDecoder(listResp.Body).Decode(&cards))
	s.Empty(cards)
}

func (s *Suite) TestCardToken_RejectsUserToken() {
	s.signup("crossed@example.com", "Abcdef12")
	login := s.login("crossed@example.com", "Abcdef12")
	card := s.issueCard(login.AccessToken, "")

	// A user token is verifiable but matches no ledger row, so the
	// card token surface rejects it.
	resp := s.cardRequest("GET", "/card/"+card.ID, login.AccessToken)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestCompleteCardFlow() {
	s.signup("complete@example.com", "Abcdef12")
	login := s.login("complete@example.com", "Abcdef12")

	card := s.issueCard(login.AccessToken, "")

	getResp := s.cardRequest("GET", "/card/"+card.ID, card.SignedToken)
	s.Equal(http.StatusOK, getResp.StatusCode)
	getResp.Body.Close()

	refreshResp := s.cardRequest("POST", fmt.Sprintf("/card/%s/refresh", card.ID), card.SignedToken)
	s.Equal(http.StatusOK, refreshResp.StatusCode)
	var refreshed dto.CardTokenResponse
	s.Require().NoError(json.NewDecoder(refreshResp.Body).Decode(&refreshed))
	refreshResp.Body.Close()

	revokeResp := s.cardRequest("PATCH", fmt.Sprintf("/card/%s/revoke", card.ID), refreshed.SignedToken)
	s.Equal(http.StatusOK, revokeResp.StatusCode)
	revokeResp.Body.Close()

	deadResp := s.cardRequest("GET", "/card/"+card.ID, refreshed.SignedToken)
	s.Equal(http.StatusUnauthorized, deadResp.StatusCode)
	deadResp.Body.Close()
}
