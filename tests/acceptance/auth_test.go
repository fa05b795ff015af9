package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/vaultgate/card-token-service/internal/dto"
)

func (s *Suite) TestSignup_Success() {
	reqBody := dto.SignupRequest{
		Email:    "test@example.com",
		Password: "Abcdef12",
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(
		s.BaseURL+"/auth/signup",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	var signupResp dto.SignupResponse
	err = json.NewDecoder(resp.Body).Decode(&signupResp)
	s.Require().NoError(err)

	s.NotEmpty(signupResp.UserID)
	s.Equal("Account created successfully", signupResp.Message)
}

func (s *Suite) TestSignup_DuplicateEmail() {
	reqBody := dto.SignupRequest{
		Email:    "duplicate@example.com",
		Password: "Abcdef12",
	}
	body, _ := json.Marshal(reqBody)

	resp1, _ := http.Post(
		s.BaseURL+"/auth/signup",
		"application/json",
		bytes.NewBuffer(body),
	)
	resp1.Body.Close()

	body, _ = json.Marshal(reqBody)
	resp2, err := http.Post(
		s.BaseURL+"/auth/signup",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp2.Body.Close()

	s.Equal(http.StatusBadRequest, resp2.StatusCode)
}

func (s *Suite) TestSignup_InvalidEmail() {
	reqBody := dto.SignupRequest{
		Email:    "invalid-email",
		Password: "Abcdef12",
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(
		s.BaseURL+"/auth/signup",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestSignup_WeakPassword() {
	reqBody := dto.SignupRequest{
		Email:    "weak@example.com",
		Password: "abcdefgh",
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(
		s.BaseURL+"/auth/signup",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_Success() {
	s.signup("login@example.com", "Abcdef12")

	loginReq := dto.LoginRequest{
		Email:    "login@example.com",
		Password: "Abcdef12",
	}
	body, _ := json.Marshal(loginReq)

	resp, err := http.Post(
		s.BaseURL+"/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var loginResp dto.LoginResponse
	err = json.NewDecoder(resp.Body).Decode(&loginResp)
	s.Require().NoError(err)

	s.NotEmpty(loginResp.AccessToken)
	s.Equal("bearer", loginResp.TokenType)
	s.NotEmpty(loginResp.UserID)
	s.NotZero(loginResp.ExpiresIn)
}

func (s *Suite) TestLogin_UnknownEmail() {
	loginReq := dto.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: "Abcdef12",
	}
	body, _ := json.Marshal(loginReq)

	resp, err := http.Post(
		s.BaseURL+"/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)
	s.Equal("Unauthorized", errResp.Error)
}

func (s *Suite) TestLogin_WrongPassword() {
	s.signup("wrongpass@example.com", "Abcdef12")

	loginReq := dto.LoginRequest{
		Email:    "wrongpass@example.com",
		Password: "Wrong123",
	}
	body, _ := json.Marshal(loginReq)

	resp, err := http.Post(
		s.BaseURL+"/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	// Wrong password and unknown email must be indistinguishable.
	var errResp dto.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)
	s.Equal("Unauthorized", errResp.Error)
}

// signup registers an account and fails the test on any error
func (s *Suite) signup(email, password string) dto.SignupResponse {
	body, _ := json.Marshal(dto.SignupRequest{Email: email, Password: password})
	resp, err := http.Post(s.BaseURL+"/auth/signup", "application/json", bytes.NewBuffer(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "Signup should succeed")

	var signupResp dto.SignupResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&signupResp))
	return signupResp
}

// login authenticates and returns the user token
func (s *Suite) login(email, password string) dto.LoginResponse {
	body, _ := json.Marshal(dto.LoginRequest{Email: email, Password: password})
	resp, err := http.Post(s.BaseURL+"/auth/login", "application/json", bytes.NewBuffer(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode, "Login should succeed")

	var loginResp dto.LoginResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&loginResp))
	return loginResp
}
